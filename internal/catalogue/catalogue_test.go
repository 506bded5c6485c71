package catalogue

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const siteData = `{
  "college": "CAHCET",
  "events": [
    {"id": "paper-presentation", "title": "Paper Presentation", "type": "tech",
     "registrationFee": "₹100 per head", "minMembers": 1, "maxMembers": 2, "timing": "10:00 AM",
     "rules": ["Max 7 slides"], "contact": {"name": "A", "phone": "9000000000"}},
    {"id": "treasure-hunt", "title": "Treasure Hunt", "type": "non-tech",
     "registrationFee": "₹150 per head", "minMembers": 2, "maxMembers": 4, "timing": "11:30 AM"}
  ]
}`

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "site-data.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestOpen(t *testing.T) {
	s, err := Open(writeFile(t, t.TempDir(), siteData))
	require.NoError(t, err)

	events := s.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "paper-presentation", events[0].Slug)

	e, ok := s.Lookup("treasure-hunt")
	require.True(t, ok)
	assert.Equal(t, 150, e.Fee())
	assert.Equal(t, 2, e.MinMembers)

	_, err = s.Get("ghost-event")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestParse_Rejects(t *testing.T) {
	tests := map[string]string{
		"malformed":    `{"events": [`,
		"missing id":   `{"events": [{"title": "X", "minMembers": 1, "maxMembers": 1}]}`,
		"duplicate id": `{"events": [{"id": "a", "minMembers": 1, "maxMembers": 1}, {"id": "a", "minMembers": 1, "maxMembers": 1}]}`,
		"bad bounds":   `{"events": [{"id": "a", "minMembers": 3, "maxMembers": 2}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	path := writeFile(t, t.TempDir(), siteData)
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"events": [`), 0o600))
	assert.Error(t, s.Reload())
	assert.Len(t, s.Events(), 2)
}

func TestWatch(t *testing.T) {
	path := writeFile(t, t.TempDir(), siteData)
	s, err := Open(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte(`{"events": [
	  {"id": "chess", "title": "Chess", "type": "non-tech", "registrationFee": "₹50 per head",
	   "minMembers": 1, "maxMembers": 1, "timing": "2:00 PM"}]}`), 0o600))

	assert.Eventually(t, func() bool {
		_, ok := s.Lookup("chess")
		return ok
	}, 5*time.Second, 50*time.Millisecond)
}
