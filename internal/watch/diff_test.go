package watch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/depgraph/internal/update"
)

func TestLineDiff_PureAddition(t *testing.T) {
	diff := lineDiff("a\nb", "a\nb\nc")
	require.Equal(t, []update.LineDiff{
		{Line: 3, Type: update.LineAdded, New: "c"},
	}, diff)
}

func TestLineDiff_PureRemoval(t *testing.T) {
	diff := lineDiff("a\nb\nc", "a\nb")
	require.Equal(t, []update.LineDiff{
		{Line: 3, Type: update.LineRemoved, Old: "c"},
	}, diff)
}

func TestLineDiff_ChangedLineKeepsLineNumber(t *testing.T) {
	diff := lineDiff("a\nb\nc", "a\nX\nc")
	require.Equal(t, []update.LineDiff{
		{Line: 2, Type: update.LineChanged, Old: "b", New: "X"},
	}, diff)
}

func TestLineDiff_IdenticalContentYieldsNoDiff(t *testing.T) {
	diff := lineDiff("same", "same")
	require.Empty(t, diff)
}

func TestLineDiff_EmptyOldIsAllAdditions(t *testing.T) {
	diff := lineDiff("", "a\nb")
	require.Len(t, diff, 2)
	require.Equal(t, update.LineAdded, diff[0].Type)
	require.Equal(t, 1, diff[0].Line)
	require.Equal(t, "a", diff[0].New)
	require.Equal(t, update.LineAdded, diff[1].Type)
	require.Equal(t, 2, diff[1].Line)
	require.Equal(t, "b", diff[1].New)
}
