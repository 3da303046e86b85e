package lists

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/domain"
)

var now = time.Date(2025, 11, 11, 9, 0, 0, 0, time.UTC)

func TestParsePlainList(t *testing.T) {
	input := strings.Join([]string{
		"\uFEFF# national police list",
		"",
		"+44 20 7946 0999, 国際送金要求",
		"050-1234-5678,自治体調査装う # inline comment",
		"0330000000",
		"03-3000-0000, duplicate of the previous line",
		"   # indented comment",
		"(),",
	}, "\n")

	got, err := ParsePlainList(strings.NewReader(input), "police", log.NewNoopLogger(), now)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "+442079460999", got[0].Number)
	assert.Equal(t, "+44 20 7946 0999", got[0].Display)
	assert.Equal(t, "国際送金要求", got[0].Label)
	assert.True(t, got[0].International)

	assert.Equal(t, "05012345678", got[1].Number)
	assert.Equal(t, "自治体調査装う", got[1].Label)
	assert.False(t, got[1].International)

	assert.Equal(t, "0330000000", got[2].Number)
	assert.Equal(t, "police", got[2].Label)

	for _, n := range got {
		assert.Equal(t, domain.SourceAuthorityList, n.Source)
		assert.Equal(t, now, n.UpdatedAt)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestParsePlainList_ScanError(t *testing.T) {
	_, err := ParsePlainList(errReader{}, "x", log.NewNoopLogger(), now)
	assert.Error(t, err)
}
