package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// MembershipAdapter calls the store's membership lookup service through the
// service container. The realtime module uses it at session bind time.
type MembershipAdapter struct {
	container mono.ServiceContainer
}

// NewMembershipAdapter creates a new MembershipAdapter.
func NewMembershipAdapter(container mono.ServiceContainer) *MembershipAdapter {
	if container == nil {
		panic("store: ServiceContainer is nil")
	}
	return &MembershipAdapter{container: container}
}

// ConversationsOf returns the ids of the conversations a user belongs to.
func (a *MembershipAdapter) ConversationsOf(ctx context.Context, userID string) ([]string, error) {
	req := ConversationsOfRequest{UserID: userID}
	var resp ConversationsOfResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceConversationsOf,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to look up conversations: %w", err)
	}
	return resp.ConversationIDs, nil
}
