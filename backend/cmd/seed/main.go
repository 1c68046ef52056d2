// Command seed fills the configured store with generated users and friendships
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"cybernauts/backend/internal/domain"
	"cybernauts/backend/internal/service"
	"cybernauts/backend/internal/store"
	"cybernauts/backend/pkg/config"
	"cybernauts/backend/pkg/logger"
)

var firstNames = []string{
	"Ada", "Alan", "Grace", "Linus", "Margaret", "Dennis", "Barbara", "Ken",
	"Radia", "Tim", "Frances", "Edsger", "Hedy", "John", "Katherine", "Guido",
}

var lastNames = []string{
	"Lovelace", "Turing", "Hopper", "Torvalds", "Hamilton", "Ritchie", "Liskov",
	"Thompson", "Perlman", "Berners", "Allen", "Dijkstra", "Lamarr", "McCarthy",
}

var hobbyPool = []string{
	"chess", "hiking", "photography", "cooking", "gaming", "reading", "cycling",
	"painting", "music", "climbing", "running", "gardening", "coding", "travel",
	"yoga", "swimming", "writing", "dancing",
}

type options struct {
	users      int
	minFriends int
	maxFriends int
	reset      bool
	seed       int64
}

func main() {
	var opts options
	pflag.IntVar(&opts.users, "users", 200, "number of users to create")
	pflag.IntVar(&opts.minFriends, "min-friends", 2, "minimum friends per user")
	pflag.IntVar(&opts.maxFriends, "max-friends", 8, "maximum friends per user")
	pflag.BoolVar(&opts.reset, "reset", false, "delete every existing user first")
	pflag.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()
	log := logger.Get()

	ctx := context.Background()
	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close(ctx)

	created, links, err := seed(ctx, st, opts, log)
	if err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Seeding complete", zap.Int("users", created), zap.Int("links", links))
}

// seed creates opts.users users and links each to a random set of others.
// It returns the number of users created and friendships made.
func seed(ctx context.Context, st store.Store, opts options, log *zap.Logger) (int, int, error) {
	if opts.minFriends < 0 || opts.maxFriends < opts.minFriends {
		return 0, 0, fmt.Errorf("invalid friend range %d..%d", opts.minFriends, opts.maxFriends)
	}

	if opts.reset {
		t, ok := st.(store.Truncater)
		if !ok {
			return 0, 0, fmt.Errorf("store %T does not support reset", st)
		}
		n, err := t.DeleteAll(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("reset store: %w", err)
		}
		log.Info("Removed existing users", zap.Int64("count", n))
	}

	rng := rand.New(rand.NewSource(opts.seed))
	svc := service.New(service.Deps{Store: st, Logger: zap.NewNop()})

	ids := make([]string, 0, opts.users)
	for i := 0; i < opts.users; i++ {
		pos := gridPosition(i, rng)
		u, err := svc.Create(ctx, service.CreateUserInput{
			Username: fmt.Sprintf("%s %s", pick(rng, firstNames), pick(rng, lastNames)),
			Age:      18 + rng.Intn(50),
			Hobbies:  sample(rng, hobbyPool, 2+rng.Intn(5)),
			Position: &pos,
		})
		if err != nil {
			return len(ids), 0, fmt.Errorf("create user %d: %w", i, err)
		}
		ids = append(ids, u.ID)
	}

	links := 0
	if len(ids) < 2 {
		return len(ids), 0, nil
	}
	for i, id := range ids {
		want := opts.minFriends + rng.Intn(opts.maxFriends-opts.minFriends+1)
		for j := 0; j < want; j++ {
			other := ids[rng.Intn(len(ids))]
			if other == id {
				continue
			}
			if err := svc.Link(ctx, id, other); err != nil {
				return len(ids), links, fmt.Errorf("link user %d: %w", i, err)
			}
			links++
		}
	}
	return len(ids), links, nil
}

// gridPosition lays users out on a 15 column grid with a little jitter
func gridPosition(i int, rng *rand.Rand) domain.Position {
	const (
		columns = 15
		spacing = 250.0
		jitter  = 50.0
	)
	return domain.Position{
		X: float64(i%columns)*spacing + rng.Float64()*jitter,
		Y: float64(i/columns)*spacing + rng.Float64()*jitter,
	}
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}

// sample returns n distinct entries of from
func sample(rng *rand.Rand, from []string, n int) []string {
	if n > len(from) {
		n = len(from)
	}
	out := make([]string, 0, n)
	for _, i := range rng.Perm(len(from))[:n] {
		out = append(out, from[i])
	}
	return out
}
