// seed inserts development sample users through the user service. Run via go run ./cmd/seed.
// Idempotent: users whose email already exists are skipped.
package main

import (
	"context"
	"errors"
	"log"
	"strconv"

	"user-registry/internal/config"
	"user-registry/internal/db"
	"user-registry/internal/user/repository"
	"user-registry/internal/user/service"
)

type sampleUser struct {
	Email string
	Name  string
	Age   int
}

var sampleUsers = []sampleUser{
	{Email: "ana.souza@example.com", Name: "Ana Souza", Age: 29},
	{Email: "bruno.lima@example.com", Name: "Bruno Lima", Age: 34},
	{Email: "carla.mendes@example.com", Name: "Carla Mendes", Age: 41},
	{Email: "diego.rocha@example.com", Name: "Diego Rocha", Age: 23},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL, db.WithMaxConns(2))
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	svc := service.NewUserService(repository.NewPostgresRepository(pool), nil)
	created, skipped, err := seed(ctx, svc, sampleUsers)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seed: %d users created, %d already present", created, skipped)
}

// seed creates each user, counting duplicates as skipped.
func seed(ctx context.Context, svc *service.UserService, users []sampleUser) (created, skipped int, err error) {
	for _, u := range users {
		age := strconv.Itoa(u.Age)
		_, err := svc.Create(ctx, service.CreateInput{Email: &u.Email, Name: &u.Name, Age: &age})
		switch {
		case err == nil:
			created++
		case errors.Is(err, service.ErrDuplicateEmail):
			skipped++
		default:
			return created, skipped, err
		}
	}
	return created, skipped, nil
}
