package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAll_Empty(t *testing.T) {
	r := NewRegistry()
	healthy, statuses := r.CheckAll(context.Background())
	assert.True(t, healthy)
	assert.Empty(t, statuses)
}

func TestCheckAll_AllHealthy(t *testing.T) {
	r := NewRegistry()
	r.Register("registry", func(context.Context) Status {
		return Status{Name: "registry", Healthy: true}
	})
	r.Register("hub", func(context.Context) Status {
		return Status{Name: "hub", Healthy: true}
	})

	healthy, statuses := r.CheckAll(context.Background())
	assert.True(t, healthy)
	assert.Len(t, statuses, 2)
}

func TestCheckAll_OneUnhealthy(t *testing.T) {
	r := NewRegistry()
	r.Register("registry", func(context.Context) Status {
		return Status{Name: "registry", Healthy: true}
	})
	r.Register("hub", func(context.Context) Status {
		return Status{Name: "hub", Healthy: false, Detail: "hub stopped"}
	})

	healthy, statuses := r.CheckAll(context.Background())
	assert.False(t, healthy)
	assert.Len(t, statuses, 2)
	assert.Equal(t, "hub stopped", statuses[1].Detail)
}

func TestBoolChecker(t *testing.T) {
	up := true
	check := BoolChecker("sampler", func() bool { return up }, "sampler down")

	s := check(context.Background())
	assert.True(t, s.Healthy)
	assert.Empty(t, s.Detail)

	up = false
	s = check(context.Background())
	assert.False(t, s.Healthy)
	assert.Equal(t, "sampler down", s.Detail)
}
