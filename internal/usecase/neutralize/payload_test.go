package neutralize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"neutralnews/internal/domain/entity"
)

func TestBuildPayload_TruncatesPastLimit(t *testing.T) {
	long := strings.Repeat("x", 20000)
	members := []*entity.Article{
		{Outlet: "a", Title: "t1", RawDescription: long},
		{Outlet: "b", Title: "t2", RawDescription: "short"},
		{Outlet: "c", Title: "t3", RawDescription: "short"},
	}
	payload := buildPayload(members)
	a := assert.New(t)
	a.True(strings.HasSuffix(payload[0].Description, truncationSuffix))
	a.Equal("short", payload[1].Description)
}

func TestBuildPayload_NoTruncationUnderFloor(t *testing.T) {
	members := []*entity.Article{
		{Outlet: "a", Title: "t1", RawDescription: "short description"},
	}
	payload := buildPayload(members)
	assert.Equal(t, "short description", payload[0].Description)
}

func TestShortestSourcesFallback_PicksThreeShortestAtFixedLimits(t *testing.T) {
	members := []*entity.Article{
		{Outlet: "a", Title: "t1", RawDescription: strings.Repeat("a", 100)},
		{Outlet: "b", Title: "t2", RawDescription: strings.Repeat("b", 6000)},
		{Outlet: "c", Title: "t3", RawDescription: strings.Repeat("c", 4000)},
		{Outlet: "d", Title: "t4", RawDescription: strings.Repeat("d", 3500)},
	}
	out := shortestSourcesFallback(members)
	assert.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Outlet)
	assert.LessOrEqual(t, len(out[0].Description), 5000+len(truncationSuffix))
	assert.True(t, strings.HasSuffix(out[1].Description, truncationSuffix))
}
