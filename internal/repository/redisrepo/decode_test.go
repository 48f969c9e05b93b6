package redisrepo

import (
	"testing"

	"ai-filesearch-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTurns(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    []entity.ChatTurn
	}{
		{
			name: "valid blob with citations",
			raw: `[{"role":"user","text":"question"},` +
				`{"role":"model","text":"answer","citations":[{"index":1,"source":"files/x","title":"Doc X"}]}]`,
			want: []entity.ChatTurn{
				{Role: "user", Text: "question"},
				{Role: "model", Text: "answer", Citations: []entity.ChatCitation{
					{Index: 1, Source: "files/x", Title: "Doc X"},
				}},
			},
		},
		{
			name: "empty array",
			raw:  `[]`,
			want: []entity.ChatTurn{},
		},
		{
			name:    "truncated blob",
			raw:     `[{"role":"user","te`,
			wantErr: true,
		},
		{
			name:    "wrong shape",
			raw:     `{"role":"user"}`,
			wantErr: true,
		},
		{
			name:    "not json at all",
			raw:     `garbage`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns, err := decodeTurns(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, turns)
		})
	}
}

func TestDecodeCartItems(t *testing.T) {
	items, err := decodeCartItems(`[{"product_id":1,"name":"Wireless Headphones","price":99.99,"quantity":2}]`)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].ProductId)
	assert.Equal(t, 2, items[0].Quantity)

	_, err = decodeCartItems(`{"product_id":1}`)
	require.Error(t, err)
}
