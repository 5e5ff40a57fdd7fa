package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"confportal.org/internal/migrate"
	"confportal.org/internal/portal"
	"confportal.org/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	var (
		dsn     = flag.String("dsn", os.Getenv("PORTAL_PG_DSN"), "PostgreSQL DSN")
		email   = flag.String("email", "", "superadmin email")
		name    = flag.String("name", "", "superadmin name")
		surname = flag.String("surname", "", "superadmin surname")
		age     = flag.Int("age", 30, "superadmin age")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or PORTAL_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status|force <version>|superadmin]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	mgr := migrate.NewManager(store.DB())

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "force":
		var version int
		version, err = strconv.Atoi(flag.Arg(1))
		if err == nil {
			err = mgr.Force(ctx, version)
		}
	case "status":
		var st migrate.Status
		st, err = mgr.Status(ctx)
		if err == nil {
			fmt.Printf("version %d of %d dirty=%t\n", st.Version, st.Latest, st.Dirty)
			for _, seed := range st.Seeds {
				fmt.Println("seed", seed)
			}
		}
	case "superadmin":
		password := os.Getenv("PORTAL_SUPERADMIN_PASSWORD")
		if password == "" {
			log.Fatal("missing password: set PORTAL_SUPERADMIN_PASSWORD")
		}
		var u portal.User
		u, err = portal.NewService(store).CreateSuperAdmin(ctx, portal.NewUser{
			Name:     *name,
			Surname:  *surname,
			Email:    *email,
			Age:      *age,
			Password: password,
		})
		if err == nil {
			fmt.Println(u.ID)
		}
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}
