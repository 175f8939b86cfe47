package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu       sync.RWMutex
	instance *zap.Logger
)

// Init inicializa el logger singleton. Solo la primera llamada tiene efecto.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = New(cfg)
	}
}

// L retorna el logger singleton.
// Si Init() no fue llamado, crea un logger por defecto (dev, info).
func L() *zap.Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(Config{Env: "dev", Level: "info"})
	return L()
}

// Replace reemplaza el singleton (útil en tests con zaptest/zap.NewNop).
// Devuelve una función que restaura el logger anterior.
func Replace(l *zap.Logger) func() {
	mu.Lock()
	prev := instance
	instance = l
	mu.Unlock()
	return func() {
		mu.Lock()
		instance = prev
		mu.Unlock()
	}
}

// Sync flushea cualquier buffer pendiente. Llamar con defer en main.go.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
