package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/models"
	"gopkg.in/yaml.v3"
)

// Seed describes demo accounts and stores, typically read from a YAML file:
//
//	users:
//	  - username: tienda1-owner
//	    password: pw2
//	    role: shopkeeper
//	stores:
//	  - owner: tienda1-owner
//	    name: Tienda1
//	    products: [pan, leche]
type Seed struct {
	Users  []SeedUser  `yaml:"users"`
	Stores []SeedStore `yaml:"stores"`
}

type SeedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type SeedStore struct {
	Owner    string   `yaml:"owner"`
	Name     string   `yaml:"name"`
	Products []string `yaml:"products"`
}

type SeedResult struct {
	UsersCreated  int
	UsersSkipped  int
	StoresCreated int
	StoresUpdated int
}

func ParseSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &seed, nil
}

// ApplySeed registers the seed's users and stores through the regular
// operations. Existing users are skipped; an owner that already has a store
// gets its product list replaced.
func ApplySeed(ctx context.Context, docs *database.DocStore, seed *Seed) (SeedResult, error) {
	var res SeedResult

	for _, u := range seed.Users {
		role, err := models.ParseRole(u.Role)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		_, err = Register(ctx, docs, RegisterRequest{Username: u.Username, Password: u.Password, Role: role})
		switch {
		case errors.Is(err, database.ErrUserExists):
			res.UsersSkipped++
		case err != nil:
			return res, fmt.Errorf("seed user %s: %w", u.Username, err)
		default:
			res.UsersCreated++
		}
	}

	for _, s := range seed.Stores {
		_, err := RegisterStore(ctx, docs, RegisterStoreRequest{Owner: s.Owner, Name: s.Name, Products: s.Products})
		if errors.Is(err, database.ErrStoreExists) {
			if _, err := UpdateProducts(ctx, docs, s.Owner, s.Products); err != nil {
				return res, fmt.Errorf("seed store %s: %w", s.Name, err)
			}
			res.StoresUpdated++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("seed store %s: %w", s.Name, err)
		}
		res.StoresCreated++
	}

	return res, nil
}
