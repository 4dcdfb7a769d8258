package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartValidation(t *testing.T) {
	base := StartParams{ID: "c1", BuyerID: "buyer", SellerID: "seller", ProductID: "p1"}

	cases := []struct {
		name   string
		mutate func(*StartParams)
		want   error
	}{
		{"missing id", func(p *StartParams) { p.ID = " " }, ErrIDRequired},
		{"missing buyer", func(p *StartParams) { p.BuyerID = "" }, ErrBuyerRequired},
		{"missing seller", func(p *StartParams) { p.SellerID = "" }, ErrSellerRequired},
		{"self conversation", func(p *StartParams) { p.SellerID = "buyer" }, ErrSelfConversation},
		{"no anchor", func(p *StartParams) { p.ProductID = "" }, ErrAnchorRequired},
		{"both anchors", func(p *StartParams) { p.ItemRequestID = "r1" }, ErrAnchorAmbiguous},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := base
			tc.mutate(&params)
			_, err := Start(params)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestStartRecordsEvent(t *testing.T) {
	conv, err := Start(StartParams{ID: "c1", BuyerID: "buyer", SellerID: "seller", ItemRequestID: "r1"})
	require.NoError(t, err)
	assert.Len(t, conv.PendingEvents(), 1)
	assert.False(t, conv.HasMessages())
}

func TestTouchLastMessageNeverRegresses(t *testing.T) {
	conv, err := Start(StartParams{ID: "c1", BuyerID: "buyer", SellerID: "seller", ProductID: "p1"})
	require.NoError(t, err)

	later := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	conv.TouchLastMessage(later)
	conv.TouchLastMessage(later.Add(-time.Hour))

	assert.Equal(t, later, conv.LastMessageAt)
	assert.True(t, conv.HasMessages())
}

func TestComposeTrimsContent(t *testing.T) {
	msg, err := Compose(ComposeParams{ID: "m1", ConversationID: "c1", SenderID: "buyer", Content: "  hi there  "})
	require.NoError(t, err)
	assert.Equal(t, "hi there", msg.Content)

	_, err = Compose(ComposeParams{ID: "m1", ConversationID: "c1", SenderID: "buyer", Content: " \n\t "})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestRoleOfAndCounterpart(t *testing.T) {
	conv, err := Start(StartParams{ID: "c1", BuyerID: "buyer", SellerID: "seller", ProductID: "p1"})
	require.NoError(t, err)

	role, ok := conv.RoleOf("buyer")
	assert.True(t, ok)
	assert.Equal(t, RoleBuyer, role)

	counterpart, err := conv.CounterpartID("seller")
	require.NoError(t, err)
	assert.Equal(t, "buyer", counterpart)

	_, err = conv.CounterpartID("stranger")
	assert.ErrorIs(t, err, ErrNotParticipant)
}
