package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerConfig_Address(t *testing.T) {
	tests := []struct {
		name   string
		server ServerConfig
		want   string
	}{
		{
			name: "localhost default port",
			server: ServerConfig{
				Host: "localhost",
				Port: 8030,
			},
			want: "localhost:8030",
		},
		{
			name: "bind all interfaces",
			server: ServerConfig{
				Host: "0.0.0.0",
				Port: 8080,
			},
			want: "0.0.0.0:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.server.Address())
		})
	}
}

func TestPostgresConfig_URLs(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "shop", SSLMode: "disable"}

	assert.Equal(t, "postgres://u:p@db:5432/shop?sslmode=disable", p.DSN())
	assert.Equal(t, "pgx5://u:p@db:5432/shop?sslmode=disable", p.MigrateURL())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("VNP_EXPIRE_MINUTES", "20")
	t.Setenv("CART_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 20, cfg.VNPay.ExpireMinutes)
	assert.Equal(t, time.Hour, cfg.Redis.CartTTL)
	assert.Equal(t, int64(30000), cfg.Shipping.FlatFee)
	assert.Equal(t, int64(2000000), cfg.Shipping.FreeFromSubtotal)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.Interval)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown storage driver",
			env:  map[string]string{"STORAGE_DRIVER": "mongo"},
			want: "not supported",
		},
		{
			name: "production without vnpay credentials",
			env:  map[string]string{"APP_ENV": "production", "STORAGE_DRIVER": "memory", "VNP_TMN_CODE": "", "VNP_HASH_SECRET": ""},
			want: "VNP_TMN_CODE",
		},
		{
			name: "empty kafka brokers",
			env:  map[string]string{"STORAGE_DRIVER": "memory", "KAFKA_BOOTSTRAP_SERVERS": " , "},
			want: "kafka brokers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
