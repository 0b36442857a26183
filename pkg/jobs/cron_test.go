package jobs

import (
	"database/sql"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGauge struct {
	last float64
	set  int
}

func (g *fakeGauge) UpdateDBConnections(count float64) {
	g.last = count
	g.set++
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestMonitorDBPool_PushesOpenConnections(t *testing.T) {
	cm := NewCronManager(nil, 90, quietLogger())

	gauge := &fakeGauge{}
	cm.MonitorDBPool(func() sql.DBStats {
		return sql.DBStats{OpenConnections: 7}
	}, gauge)

	cm.updatePoolGauge()

	assert.Equal(t, 1, gauge.set)
	assert.Equal(t, 7.0, gauge.last)
}

func TestSetupJobs_RegistersPoolGaugeJob(t *testing.T) {
	cm := NewCronManager(nil, 90, quietLogger())
	cm.MonitorDBPool(func() sql.DBStats { return sql.DBStats{} }, &fakeGauge{})

	require.NoError(t, cm.SetupJobs())
	assert.Len(t, cm.cron.Entries(), 2)
}

func TestSetupJobs_WithoutPoolMonitor(t *testing.T) {
	cm := NewCronManager(nil, 90, quietLogger())

	require.NoError(t, cm.SetupJobs())
	assert.Len(t, cm.cron.Entries(), 1)
}
