package harvest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/example/moderation-platform/services/moderator/internal/bili"
)

type fakeSource struct {
	pages    map[int][]bili.Reply
	topErr   map[int]error
	replies  map[int64]map[int][]bili.Reply
	replyErr map[int64]map[int]error
}

func (f *fakeSource) GetComments(_ context.Context, _ int64, page int) ([]bili.Reply, error) {
	if err := f.topErr[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func (f *fakeSource) GetReplies(_ context.Context, _ int64, root int64, page int) ([]bili.Reply, error) {
	if err := f.replyErr[root][page]; err != nil {
		return nil, err
	}
	return f.replies[root][page], nil
}

func (f *fakeSource) DeleteComment(context.Context, int64, int64) error { return nil }
func (f *fakeSource) BlockUser(context.Context, int64) error            { return nil }

func mkReply(rpid, mid int64, uname, msg string, rcount int) bili.Reply {
	var r bili.Reply
	r.RPID = rpid
	r.MID = mid
	r.RCount = rcount
	r.Member.Uname = uname
	r.Content.Message = msg
	return r
}

func newTestHarvester(src bili.Provider, maxPages int) *Harvester {
	h := New(zap.NewNop(), src, 1, maxPages)
	h.PageDelay = 0
	h.ThreadDelay = 0
	h.ReplyPageDelay = 0
	return h
}

func collect(t *testing.T, h *Harvester) ([]Item, error) {
	t.Helper()
	out := make(chan Item, 1024)
	err := h.Run(context.Background(), out)
	var items []Item
	for it := range out {
		items = append(items, it)
	}
	return items, err
}

func TestHarvester_EmptyVideo(t *testing.T) {
	items, err := collect(t, newTestHarvester(&fakeSource{}, 5))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestHarvester_TopLevelThenThreads(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]bili.Reply{
			1: {
				mkReply(1, 10, "a", "root one", 2),
				mkReply(2, 11, "b", "root two", 0),
			},
		},
		replies: map[int64]map[int][]bili.Reply{
			1: {1: {
				mkReply(100, 12, "c", "reply one", 0),
				mkReply(101, 13, "d", "reply two", 0),
			}},
		},
	}

	items, err := collect(t, newTestHarvester(src, 5))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	wantRPIDs := []int64{1, 2, 100, 101}
	if len(items) != len(wantRPIDs) {
		t.Fatalf("expected %d items, got %d", len(wantRPIDs), len(items))
	}
	for i, want := range wantRPIDs {
		if items[i].RPID != want {
			t.Fatalf("emission order broken at %d: got rpid %d want %d", i, items[i].RPID, want)
		}
	}
	if items[0].ParentID != 0 || items[1].ParentID != 0 {
		t.Fatal("top-level items must have no parent")
	}
	if items[2].ParentID != 1 || items[3].ParentID != 1 {
		t.Fatalf("replies must carry their root rpid, got %d/%d", items[2].ParentID, items[3].ParentID)
	}
}

func TestHarvester_ReplyPaginationStopsOnShortPage(t *testing.T) {
	full := make([]bili.Reply, bili.ReplyPageSize)
	for i := range full {
		full[i] = mkReply(int64(100+i), 12, "c", "r", 0)
	}
	src := &fakeSource{
		pages: map[int][]bili.Reply{
			1: {mkReply(1, 10, "a", "root", 30)},
		},
		replies: map[int64]map[int][]bili.Reply{
			1: {
				1: full,
				2: {mkReply(500, 13, "d", "last", 0)},
				3: {mkReply(999, 14, "e", "must not be fetched", 0)},
			},
		},
	}

	items, err := collect(t, newTestHarvester(src, 5))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// root + full page + 1 on the short page; page 3 never requested.
	if want := 1 + bili.ReplyPageSize + 1; len(items) != want {
		t.Fatalf("expected %d items, got %d", want, len(items))
	}
	for _, it := range items {
		if it.RPID == 999 {
			t.Fatal("pagination did not stop at the short page")
		}
	}
}

func TestHarvester_ThreadErrorDoesNotAbortSiblings(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]bili.Reply{
			1: {
				mkReply(1, 10, "a", "broken thread", 1),
				mkReply(2, 11, "b", "healthy thread", 1),
			},
		},
		replies: map[int64]map[int][]bili.Reply{
			2: {1: {mkReply(200, 12, "c", "survived", 0)}},
		},
		replyErr: map[int64]map[int]error{
			1: {1: errors.New("boom")},
		},
	}

	items, err := collect(t, newTestHarvester(src, 5))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	found := false
	for _, it := range items {
		if it.RPID == 200 && it.ParentID == 2 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the healthy thread's reply to be emitted")
	}
}

func TestHarvester_TopLevelErrorIsFatal(t *testing.T) {
	src := &fakeSource{
		pages: map[int][]bili.Reply{
			1: {mkReply(1, 10, "a", "page one", 0)},
		},
		topErr: map[int]error{2: errors.New("rate limited")},
	}

	items, err := collect(t, newTestHarvester(src, 5))
	if err == nil {
		t.Fatal("expected fatal harvest error")
	}
	// Items fetched before the failure were already emitted.
	if len(items) != 1 {
		t.Fatalf("expected 1 item before the failure, got %d", len(items))
	}
}

func TestHarvester_MaxPagesBoundsTopLevel(t *testing.T) {
	src := &fakeSource{pages: map[int][]bili.Reply{}}
	for p := 1; p <= 10; p++ {
		src.pages[p] = []bili.Reply{mkReply(int64(p), 10, "a", fmt.Sprintf("page %d", p), 0)}
	}

	items, err := collect(t, newTestHarvester(src, 3))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items with maxPages=3, got %d", len(items))
	}
}
