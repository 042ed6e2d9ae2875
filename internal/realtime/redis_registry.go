package realtime

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisPubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisRegistry implementa Registry sobre Redis Pub/Sub: la membresia local
// vive en memoria y las publicaciones viajan por un canal de Redis por sala,
// de modo que sesiones unidas a la misma sala en procesos distintos se ven
// entre si. Requiere un unico Redis logico compartido por todos los procesos.
type RedisRegistry struct {
	client redisPubSubClient
	logger *zap.Logger
	local  *MemoryRegistry
	prefix string

	mu   sync.Mutex
	subs map[string]*redis.PubSub
}

func NewRedisRegistry(client *redis.Client, logger *zap.Logger) *RedisRegistry {
	if client == nil {
		return nil
	}
	return &RedisRegistry{
		client: client,
		logger: logger,
		local:  NewMemoryRegistry(),
		prefix: "chat:room:",
		subs:   make(map[string]*redis.PubSub),
	}
}

// Join registra al miembro localmente y se suscribe al canal de la sala la
// primera vez que alguien de este proceso se une.
func (r *RedisRegistry) Join(ctx context.Context, room string, m Member) error {
	if err := r.local.Join(ctx, room, m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[room]; ok {
		return nil
	}

	pubsub := r.client.Subscribe(ctx, r.prefix+room)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		_ = r.local.Leave(ctx, room, m)
		return err
	}
	r.subs[room] = pubsub
	go r.forward(room, pubsub)
	return nil
}

// Leave quita al miembro local y cierra la suscripcion de la sala cuando no
// queda ningun miembro en este proceso.
func (r *RedisRegistry) Leave(ctx context.Context, room string, m Member) error {
	if err := r.local.Leave(ctx, room, m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.local.MemberCount(room) > 0 {
		return nil
	}
	if pubsub, ok := r.subs[room]; ok {
		delete(r.subs, room)
		if err := pubsub.Close(); err != nil {
			r.logger.Warn("closing room subscription failed",
				zap.String("room", room), zap.Error(err))
		}
	}
	return nil
}

func (r *RedisRegistry) Publish(ctx context.Context, room string, payload []byte) error {
	return r.client.Publish(ctx, r.prefix+room, payload).Err()
}

// forward reparte a los miembros locales todo lo que llega por el canal de
// la sala, en el orden en que el broker lo entrega.
func (r *RedisRegistry) forward(room string, pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		if err := r.local.Publish(context.Background(), room, []byte(msg.Payload)); err != nil {
			r.logger.Warn("local fan-out failed",
				zap.String("room", room), zap.Error(err))
		}
	}
}
