// Package provision turns reconstructed subnet entries into provisioned
// subnets. The actual provisioning mechanism is pluggable; subnetd only
// requires that it accepts one (path, zone, id) triple and returns the
// finished subnet.
package provision

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"subnetd/internal/model"
	"subnetd/internal/worker"
)

// Provisioner constructs one subnet from its reconstructed entry. It
// is invoked once per entry and must be safe for concurrent use.
type Provisioner interface {
	Provision(ctx context.Context, subnet model.Subnet) (model.Subnet, error)
}

// Local is the built-in provisioner. It performs no external calls and
// just mints a subnet id for entries that lack one.
type Local struct{}

// Provision implements Provisioner
func (Local) Provision(ctx context.Context, subnet model.Subnet) (model.Subnet, error) {
	if subnet.SubnetID == "" {
		subnet.SubnetID = "subnet-" + uuid.NewString()
	}
	return subnet, nil
}

// All provisions every subnet through the pool, preserving list order.
// The first failure aborts the call; subnets are never returned
// partially provisioned.
func All(ctx context.Context, pool *worker.Pool, p Provisioner, subnets []model.Subnet) ([]model.Subnet, error) {
	out := make([]model.Subnet, len(subnets))
	results := make([]chan error, len(subnets))

	for i := range subnets {
		i := i
		results[i] = make(chan error, 1)
		job := worker.Job{
			ID: fmt.Sprintf("provision-%d", i),
			Handler: func(ctx context.Context) error {
				s, err := p.Provision(ctx, subnets[i])
				if err != nil {
					return err
				}
				out[i] = s
				return nil
			},
			Result: results[i],
		}
		if err := pool.Submit(job); err != nil {
			return nil, err
		}
	}

	for i, ch := range results {
		select {
		case err := <-ch:
			if err != nil {
				return nil, fmt.Errorf("provisioning subnet %d: %w", i, err)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return out, nil
}
