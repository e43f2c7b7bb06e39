package bili

import "context"

// Provider is the port for the Bilibili operations the pipeline drives.
// Startup-only calls (ResolveVideo, CheckCredential) stay on *Client.
type Provider interface {
	GetComments(ctx context.Context, aid int64, page int) ([]Reply, error)
	GetReplies(ctx context.Context, aid, rootID int64, page int) ([]Reply, error)
	DeleteComment(ctx context.Context, aid, rpid int64) error
	BlockUser(ctx context.Context, uid int64) error
}

var _ Provider = (*Client)(nil)
