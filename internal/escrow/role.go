package escrow

import "github.com/google/uuid"

// Role identifies which party of the contract a caller acts as.
type Role int

const (
	RoleNone Role = iota
	RoleClient
	RoleFreelancer
	RoleArbitrator
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleFreelancer:
		return "freelancer"
	case RoleArbitrator:
		return "arbitrator"
	default:
		return "none"
	}
}

// RoleOf resolves the caller identity against the contract parties.
func (p *Project) RoleOf(caller uuid.UUID) Role {
	if caller == uuid.Nil {
		return RoleNone
	}
	switch caller {
	case p.ClientID:
		return RoleClient
	case p.FreelancerID:
		return RoleFreelancer
	case p.ArbitratorID:
		return RoleArbitrator
	default:
		return RoleNone
	}
}

// requireRole is evaluated before any state check or mutation in every
// operation.
func (p *Project) requireRole(caller uuid.UUID, roles ...Role) error {
	actual := p.RoleOf(caller)
	for _, role := range roles {
		if actual == role {
			return nil
		}
	}
	return ErrUnauthorized
}
