package models

import (
	"fmt"

	"github.com/conformalab/samplequal/pkg/errors"
)

// DihedralKind identifies a backbone torsion angle family.
type DihedralKind string

const (
	DihedralPhi DihedralKind = "phi"
	DihedralPsi DihedralKind = "psi"
)

// Trajectory is the loaded form of one simulation replicate: per-chain
// dihedral angle series extracted upstream from the raw coordinate files.
// Angle matrices are indexed [frame][residue] and hold degrees.
type Trajectory struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Source   string          `json:"source,omitempty"`
	Topology string          `json:"topology,omitempty"`
	NFrames  int             `json:"n_frames"`
	Chains   []*ProteinChain `json:"chains"`
}

// ProteinChain is one chain's dihedral record. ResidueIDs carry the
// topology numbering of the residues that own a complete phi/psi pair;
// columns of Phi and Psi follow the same order.
type ProteinChain struct {
	Index      int         `json:"index"`
	Name       string      `json:"name,omitempty"`
	ResidueIDs []int       `json:"residue_ids"`
	Phi        [][]float64 `json:"phi"`
	Psi        [][]float64 `json:"psi"`
}

// Chain returns the chain at index i.
func (t *Trajectory) Chain(i int) (*ProteinChain, error) {
	if i < 0 || i >= len(t.Chains) {
		return nil, errors.NewChainIndexError(i, len(t.Chains), t.Name)
	}
	return t.Chains[i], nil
}

// Truncate returns a view of the trajectory restricted to frames [0, n).
// Chain angle rows are shared with the receiver; rows are never mutated
// after loading.
func (t *Trajectory) Truncate(n int) *Trajectory {
	if n >= t.NFrames {
		return t
	}
	out := &Trajectory{
		ID:       t.ID,
		Name:     t.Name,
		Source:   t.Source,
		Topology: t.Topology,
		NFrames:  n,
		Chains:   make([]*ProteinChain, len(t.Chains)),
	}
	for i, c := range t.Chains {
		out.Chains[i] = &ProteinChain{
			Index:      c.Index,
			Name:       c.Name,
			ResidueIDs: c.ResidueIDs,
			Phi:        c.Phi[:n],
			Psi:        c.Psi[:n],
		}
	}
	return out
}

// Validate checks structural consistency of a loaded trajectory: frame
// counts match the declared NFrames and every frame row spans the chain's
// residues.
func (t *Trajectory) Validate() error {
	if t.NFrames <= 0 {
		return fmt.Errorf("trajectory %q declares %d frames", t.Name, t.NFrames)
	}
	if len(t.Chains) == 0 {
		return fmt.Errorf("trajectory %q has no chains", t.Name)
	}
	for _, c := range t.Chains {
		if err := c.validate(t.NFrames); err != nil {
			return fmt.Errorf("trajectory %q: %w", t.Name, err)
		}
	}
	return nil
}

// NResidues returns the number of residues with recorded angles.
func (c *ProteinChain) NResidues() int {
	return len(c.ResidueIDs)
}

// Angles returns the residue IDs and the frames x residues matrix for the
// requested dihedral kind. Values are degrees in [-180, 180].
func (c *ProteinChain) Angles(kind DihedralKind) ([]int, [][]float64, error) {
	switch kind {
	case DihedralPhi:
		return c.ResidueIDs, c.Phi, nil
	case DihedralPsi:
		return c.ResidueIDs, c.Psi, nil
	default:
		return nil, nil, fmt.Errorf("unknown dihedral kind %q", kind)
	}
}

func (c *ProteinChain) validate(nFrames int) error {
	if len(c.ResidueIDs) == 0 {
		return fmt.Errorf("chain %d has no residues", c.Index)
	}
	if len(c.Phi) != nFrames || len(c.Psi) != nFrames {
		return fmt.Errorf("chain %d angle series span %d/%d frames, expected %d",
			c.Index, len(c.Phi), len(c.Psi), nFrames)
	}
	for f := range c.Phi {
		if len(c.Phi[f]) != len(c.ResidueIDs) || len(c.Psi[f]) != len(c.ResidueIDs) {
			return fmt.Errorf("chain %d frame %d covers %d/%d residues, expected %d",
				c.Index, f, len(c.Phi[f]), len(c.Psi[f]), len(c.ResidueIDs))
		}
	}
	return nil
}
