package database

import "testing"

func TestNewRedisClient_EmptyURLDisablesRedis(t *testing.T) {
	client, err := NewRedisClient("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Fatalf("expected nil client when REDIS_URL is empty")
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	if _, err := NewRedisClient("not-a-redis-url"); err == nil {
		t.Fatalf("expected parse error")
	}
}
