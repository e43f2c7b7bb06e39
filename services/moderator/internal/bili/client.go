package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ReplyPageSize is the fixed nested-reply page capacity of the reply endpoint.
// A page with fewer entries is the last page of its thread.
const ReplyPageSize = 20

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Credential Credential
}

func New(baseURL string, cred Credential) *Client {
	if baseURL == "" {
		baseURL = "https://api.bilibili.com"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Credential: cred,
	}
}

// ResolveVideo resolves a bvid to the numeric aid used by the reply endpoints.
func (c *Client) ResolveVideo(ctx context.Context, bvid string) (int64, error) {
	if strings.TrimSpace(bvid) == "" {
		return 0, fmt.Errorf("bvid required")
	}
	var out viewData
	if err := c.get(ctx, "/x/web-interface/view?bvid="+url.QueryEscape(bvid), &out); err != nil {
		return 0, err
	}
	if out.AID <= 0 {
		return 0, fmt.Errorf("bili: no aid for bvid %q", bvid)
	}
	return out.AID, nil
}

// GetComments returns one page of top-level comments, ordered by like count.
func (c *Client) GetComments(ctx context.Context, aid int64, page int) ([]Reply, error) {
	path := fmt.Sprintf("/x/v2/reply?type=1&oid=%d&pn=%d&sort=2", aid, page)
	var out replyListData
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Replies, nil
}

// GetReplies returns one page (capacity ReplyPageSize) of a comment's nested replies.
func (c *Client) GetReplies(ctx context.Context, aid, rootID int64, page int) ([]Reply, error) {
	path := fmt.Sprintf("/x/v2/reply/reply?type=1&oid=%d&root=%d&pn=%d&ps=%d", aid, rootID, page, ReplyPageSize)
	var out replyListData
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Replies, nil
}

// DeleteComment removes a comment (or nested reply) by rpid.
func (c *Client) DeleteComment(ctx context.Context, aid, rpid int64) error {
	form := url.Values{
		"type": {"1"},
		"oid":  {strconv.FormatInt(aid, 10)},
		"rpid": {strconv.FormatInt(rpid, 10)},
		"csrf": {c.Credential.BiliJCT},
	}
	return c.post(ctx, "/x/v2/reply/del", form)
}

// BlockUser puts the given user on the account's block list.
func (c *Client) BlockUser(ctx context.Context, uid int64) error {
	form := url.Values{
		"fid":    {strconv.FormatInt(uid, 10)},
		"act":    {"5"}, // 5 = block
		"re_src": {"11"},
		"csrf":   {c.Credential.BiliJCT},
	}
	return c.post(ctx, "/x/relation/modify", form)
}

// CheckCredential reports whether the cookie credential needs a refresh.
// Refresh itself is a manual operation; this check is advisory.
func (c *Client) CheckCredential(ctx context.Context) (needsRefresh bool, err error) {
	var out cookieInfoData
	if err := c.get(ctx, "/x/passport-login/web/cookie/info", &out); err != nil {
		return false, err
	}
	return out.Refresh, nil
}

func (c *Client) get(ctx context.Context, path string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, data)
}

func (c *Client) post(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, &json.RawMessage{})
}

func (c *Client) do(req *http.Request, data any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "moderation-platform/1.0")
	req.Header.Set("Referer", "https://www.bilibili.com")
	req.AddCookie(&http.Cookie{Name: "SESSDATA", Value: c.Credential.SESSDATA})
	req.AddCookie(&http.Cookie{Name: "bili_jct", Value: c.Credential.BiliJCT})

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bili: status %d body=%q", resp.StatusCode, string(b[:min(len(b), 200)]))
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("bili: decode error: %w body=%q", err, string(b[:min(len(b), 200)]))
	}
	if env.Code != 0 {
		return fmt.Errorf("bili: api code %d: %s", env.Code, env.Message)
	}
	if data == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return fmt.Errorf("bili: decode data: %w", err)
	}
	return nil
}
