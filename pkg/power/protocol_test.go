package power

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProtocol records the order of operations.
type fakeProtocol struct {
	calls []string
}

func (p *fakeProtocol) On(ctx context.Context) error {
	p.calls = append(p.calls, "on")
	return nil
}

func (p *fakeProtocol) Off(ctx context.Context) error {
	p.calls = append(p.calls, "off")
	return nil
}

func (p *fakeProtocol) Cycle(ctx context.Context) error {
	p.calls = append(p.calls, "cycle")
	return nil
}

func (p *fakeProtocol) Get(ctx context.Context) (bool, error) {
	p.calls = append(p.calls, "get")
	return false, nil
}

func (p *fakeProtocol) Capability() string { return Capability }
func (p *fakeProtocol) Close() error       { return nil }

func TestCycleByToggle(t *testing.T) {
	p := &fakeProtocol{}
	require.NoError(t, cycleByToggle(context.Background(), p, time.Millisecond*5))
	assert.Equal(t, []string{"off", "on"}, p.calls)
}

func TestCycleByToggleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProtocol{}
	err := cycleByToggle(ctx, p, time.Second)
	require.Error(t, err)
	// The cancel hits during the delay, power stays off.
	assert.Equal(t, []string{"off"}, p.calls)
}

func TestParseBool(t *testing.T) {
	for _, input := range []string{"1", "t", "true", "on", "yes", "ON", " On\n"} {
		v, err := parseBool(input)
		require.NoError(t, err, input)
		assert.True(t, v, input)
	}
	for _, input := range []string{"0", "f", "false", "off", "no", "OFF"} {
		v, err := parseBool(input)
		require.NoError(t, err, input)
		assert.False(t, v, input)
	}
	_, err := parseBool("bogus")
	assert.Error(t, err)
}
