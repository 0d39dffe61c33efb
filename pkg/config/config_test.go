package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
environment: test
server:
  port: 8080
backend:
  type: kafka
kafka:
  brokers: ["localhost:9092"]
  readings_topic: coldpull.readings
source:
  type: synthetic
  synthetic:
    interval: 1s
scoring:
  products: [dairy, meat]
  window: 30
  mode: adaptive
cache:
  latest_ttl: 5m
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	c, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, "kafka", c.Backend.Type)
	assert.Equal(t, []string{"dairy", "meat"}, c.Scoring.Products)
	assert.Equal(t, 5*time.Minute, c.Cache.LatestTTL)
	assert.Equal(t, time.Second, c.Source.Synthetic.Interval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateBackendType(t *testing.T) {
	bad := `
environment: test
backend:
  type: postgres
source:
  type: synthetic
scoring:
  products: [dairy]
`
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "backend.type")
}

func TestValidateSourceType(t *testing.T) {
	bad := `
environment: test
backend:
  type: kafka
source:
  type: carrier-pigeon
scoring:
  products: [dairy]
`
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "source.type")
}

func TestValidateSourceRequiredFields(t *testing.T) {
	bad := `
environment: test
backend:
  type: clickhouse
source:
  type: poll
scoring:
  products: [dairy]
`
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "source.poll.endpoint")
}

func TestValidateProductsRequired(t *testing.T) {
	bad := `
environment: test
backend:
  type: kafka
source:
  type: synthetic
scoring:
  products: []
`
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "scoring.products")
}

func TestValidateScoringMode(t *testing.T) {
	bad := `
environment: test
backend:
  type: kafka
source:
  type: synthetic
scoring:
  products: [dairy]
  mode: psychic
`
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "scoring.mode")
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SOURCE", "replay")
	t.Setenv("BACKEND", "clickhouse")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PRODUCTS", "vaccine")

	full := `
environment: test
backend:
  type: kafka
source:
  type: synthetic
  replay:
    path: traces/fridge.csv
scoring:
  products: [dairy]
`
	c, err := LoadWithEnv(writeConfig(t, full))
	require.NoError(t, err)
	assert.Equal(t, "replay", c.Source.Type)
	assert.Equal(t, "clickhouse", c.Backend.Type)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, []string{"vaccine"}, c.Scoring.Products)
}
