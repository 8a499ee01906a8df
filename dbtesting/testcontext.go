package dbtesting

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/require"
)

type TestContext struct {
	Log  logger.Logger
	T    *testing.T
	Rand *rand.Rand
}

type TestConfig struct {
	// The generator RNG is seeded from Seed. It is normal to force it to
	// some fixed value so that the generated graphs are the same from run to
	// run.
	Seed            int64
	TestLabelPrefix string
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	c := TestContext{
		T:    t,
		Rand: rand.New(rand.NewSource(cfg.Seed)),
	}
	logger.New("NOOP")
	c.Log = logger.Sugar.WithServiceName(cfg.TestLabelPrefix)
	return c
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

// WriteFile writes data to name in a directory removed when the test ends,
// and returns the path.
func (c *TestContext) WriteFile(dir string, name string, data []byte) string {
	if dir == "" {
		dir = c.T.TempDir()
	}
	path := filepath.Join(dir, name)
	require.NoError(c.T, os.WriteFile(path, data, 0o644))
	return path
}
