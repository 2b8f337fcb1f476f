package utils

import (
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/clubdev/clubdev/config"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	config.Load()
	Sugar = zap.NewNop().Sugar()
	os.Exit(m.Run())
}
