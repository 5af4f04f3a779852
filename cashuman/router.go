package cashuman

import (
	"context"
	"errors"
	"math/rand"

	logger "github.com/sirupsen/logrus"
)

var (
	ErrRouterNeedsTwoMints = errors.New("multi-mint routing needs at least two mints")
	ErrRouterBadCount      = errors.New("requested mint count exceeds configured mints")
)

// Router spreads proofs across several mint endpoints so that no single
// mint sees the whole mixed amount.
type Router struct {
	clients []Client
}

// Distribution is one mint's slice of a distributed proof set.
type Distribution struct {
	Client Client
	Proofs Proofs
}

func NewRouter(clients []Client) *Router {
	return &Router{clients: clients}
}

func (r *Router) MintCount() int {
	return len(r.clients)
}

// SelectMint picks a mint at random.
func (r *Router) SelectMint() Client {
	return r.clients[rand.Intn(len(r.clients))]
}

// DistributeSend splits total across numMints mints. The proofs live at
// clients[0]; each additional mint receives an equal carved share via a
// portable token, the remainder stays at the origin. The union of the
// returned distributions replaces the input proof set.
func (r *Router) DistributeSend(ctx context.Context, total uint64, proofs Proofs, numMints int) ([]Distribution, error) {
	if len(r.clients) < 2 {
		return nil, ErrRouterNeedsTwoMints
	}
	if numMints < 2 || numMints > len(r.clients) {
		return nil, ErrRouterBadCount
	}

	origin := r.clients[0]
	share := total / uint64(numMints)

	pool := proofs
	distributions := make([]Distribution, 0, numMints)

	for _, target := range r.clients[1:numMints] {
		carved, err := origin.Send(ctx, share, pool)
		if err != nil {
			return nil, err
		}
		pool = carved.Keep

		token, err := origin.CreateToken(carved.Send)
		if err != nil {
			return nil, err
		}

		moved, err := target.Receive(ctx, token)
		if err != nil {
			return nil, err
		}

		logger.WithFields(logger.Fields{
			"mint":   target.MintURL(),
			"amount": moved.Total(),
		}).Debug("distributed proofs to mint")

		distributions = append(distributions, Distribution{Client: target, Proofs: moved})
	}

	// Remainder stays at the origin mint.
	distributions = append([]Distribution{{Client: origin, Proofs: pool}}, distributions...)

	return distributions, nil
}

// RouteThrough pushes equal shares of the pool through numMints-1 side
// mints and immediately back, so each share is re-blinded by a mint that
// never sees the rest of the amount. The returned pool is spendable at
// the origin again.
func (r *Router) RouteThrough(ctx context.Context, total uint64, proofs Proofs, numMints int) (Proofs, error) {
	distributions, err := r.DistributeSend(ctx, total, proofs, numMints)
	if err != nil {
		return nil, err
	}

	origin := r.clients[0]
	pool := distributions[0].Proofs
	for _, d := range distributions[1:] {
		token, err := d.Client.CreateToken(d.Proofs)
		if err != nil {
			return nil, err
		}
		back, err := origin.Receive(ctx, token)
		if err != nil {
			return nil, err
		}
		pool = append(pool, back...)
	}
	return pool, nil
}
