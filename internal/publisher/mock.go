package publisher

import (
	"context"
	"fmt"
	"hash/fnv"
)

// Mock is a stand-in client that always succeeds without any network
// call. It is registered for every platform in mock mode and for
// platforms whose real client has no credentials configured.
type Mock struct {
	platform string
}

// NewMock creates a mock client for a platform.
func NewMock(platform string) *Mock {
	return &Mock{platform: platform}
}

func (m *Mock) Platform() string { return m.platform }

// Post returns a deterministic success: the post id derives from the
// content so repeated publishes of the same content are recognizable
// in logs and tests.
func (m *Mock) Post(ctx context.Context, post Post) Result {
	h := fnv.New32a()
	h.Write([]byte(post.Content))

	return Result{
		Success:  true,
		Platform: m.platform,
		PostID:   fmt.Sprintf("mock_%s_%04d", m.platform, h.Sum32()%10000),
	}
}

func (m *Mock) Status() Status {
	return Status{Platform: m.platform, Authenticated: true, Mock: true}
}
