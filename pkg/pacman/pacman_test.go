package pacman

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pacdeck/internal/progress"
)

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, DefaultBinary, opts.Binary)
	assert.Equal(t, DefaultLogFile, opts.LogFile)
	assert.Equal(t, DefaultPendingCommand, opts.PendingCommand)
	assert.Equal(t, 300*time.Second, opts.Timeouts.Operation)
	assert.Equal(t, 60*time.Second, opts.Timeouts.Query)
	assert.Equal(t, 15*time.Second, opts.Timeouts.Pending)

	custom := Options{Timeouts: Timeouts{Query: time.Second}}.withDefaults()
	assert.Equal(t, time.Second, custom.Timeouts.Query)
	assert.Equal(t, 300*time.Second, custom.Timeouts.Operation)
}

func TestManagerRoutesToComponents(t *testing.T) {
	runner := newFakeRunner(map[string]reply{
		"pacman -S --noconfirm htop": {},
		"pacman -Q htop":             {stdout: "htop 1-1\n"},
		"pacman -Si htop":            {stdout: repoInfo("htop", "1-1")},
		"checkupdates":               {stdout: "htop 1-1 -> 1-2\n"},
	})
	rec := progress.NewRecorder()
	m := NewManager(runner, progress.NewEmitter(rec, ""), Options{LogFile: "/nonexistent/pacman.log"})

	res := m.RunOperation(context.Background(), KindInstall, "htop")
	assert.True(t, res.Success)

	statuses := m.CheckStatus(context.Background(), []string{"htop"})
	assert.Len(t, statuses, 1)
	assert.True(t, statuses[0].Installed)

	summary := m.CheckSystemUpdates(context.Background())
	assert.Equal(t, 1, summary.PendingUpdatesCount)

	assert.NotNil(t, m.Controller())
	assert.NotEmpty(t, rec.Events())
}
