package database

import (
	"testing"

	"gorm.io/gorm/logger"
)

func TestGormLogLevel(t *testing.T) {
	tests := []struct {
		env  string
		want logger.LogLevel
	}{
		{"development", logger.Info},
		{"production", logger.Warn},
		{"", logger.Warn},
	}
	for _, tt := range tests {
		if got := gormLogLevel(tt.env); got != tt.want {
			t.Errorf("gormLogLevel(%q) = %v, want %v", tt.env, got, tt.want)
		}
	}
}
