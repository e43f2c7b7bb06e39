package bili

import "encoding/json"

// Credential carries the cookie-based auth material for the Bilibili API.
// BiliJCT doubles as the csrf token on mutating calls.
type Credential struct {
	SESSDATA    string
	BiliJCT     string
	ACTimeValue string
}

// Reply is one comment as returned by the reply endpoints, top-level or nested.
type Reply struct {
	RPID   int64 `json:"rpid"`
	MID    int64 `json:"mid"`
	RCount int   `json:"rcount"`
	Member struct {
		Uname string `json:"uname"`
	} `json:"member"`
	Content struct {
		Message string `json:"message"`
	} `json:"content"`
}

// HasReplies reports whether the platform marked this comment as having a
// nested reply thread worth paginating.
func (r Reply) HasReplies() bool {
	return r.RCount > 0
}

// envelope is the common Bilibili API response wrapper. A non-zero Code is
// an application-level failure even on HTTP 200.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type replyListData struct {
	Replies []Reply `json:"replies"`
}

type viewData struct {
	AID int64 `json:"aid"`
}

type cookieInfoData struct {
	Refresh bool `json:"refresh"`
}
