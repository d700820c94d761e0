package trajectory

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/conformalab/samplequal/pkg/constants"
	"github.com/conformalab/samplequal/pkg/errors"
	"github.com/conformalab/samplequal/pkg/models"
)

// AngleFileConfig configures the angle table loader.
type AngleFileConfig struct {
	// Format forces a file format; empty selects by file extension.
	Format string `json:"format" yaml:"format"`

	// ValidateOnLoad runs structural validation on every loaded
	// trajectory.
	ValidateOnLoad bool `json:"validate_on_load" yaml:"validate_on_load"`
}

// AngleFileLoader reads per-replicate dihedral tables produced by the
// upstream extraction pipeline. JSON files carry the models.Trajectory
// document; CSV files carry one chain as frame rows with phi_<id> and
// psi_<id> columns. Angle values are degrees.
type AngleFileLoader struct {
	config *AngleFileConfig
	logger *logrus.Logger
}

// NewAngleFileLoader creates an angle table loader.
func NewAngleFileLoader(config *AngleFileConfig, logger *logrus.Logger) *AngleFileLoader {
	if config == nil {
		config = getDefaultAngleFileConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &AngleFileLoader{
		config: config,
		logger: logger,
	}
}

// Name returns the loader identifier.
func (l *AngleFileLoader) Name() string {
	return "anglefile"
}

// SupportedFormats lists the accepted file formats.
func (l *AngleFileLoader) SupportedFormats() []string {
	return []string{constants.AngleFormatJSON, constants.AngleFormatCSV}
}

// Load reads one trajectory's angle table. topPath may be empty; when
// given it is recorded on the trajectory and must exist.
func (l *AngleFileLoader) Load(ctx context.Context, trajPath, topPath string) (*models.Trajectory, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeLoader, errors.CodeLoadCancelled,
			fmt.Sprintf("load of %q cancelled", trajPath))
	}
	if _, err := os.Stat(trajPath); err != nil {
		return nil, errors.NewPathError(err, trajPath)
	}
	if topPath != "" {
		if _, err := os.Stat(topPath); err != nil {
			return nil, errors.NewPathError(err, topPath)
		}
	}

	format, err := l.resolveFormat(trajPath)
	if err != nil {
		return nil, err
	}

	var trj *models.Trajectory
	switch format {
	case constants.AngleFormatJSON:
		trj, err = l.loadJSON(trajPath)
	case constants.AngleFormatCSV:
		trj, err = l.loadCSV(trajPath)
	default:
		err = errors.NewLoaderError(errors.CodeAngleFileInvalid,
			fmt.Sprintf("unsupported angle file format %q for %q", format, trajPath))
	}
	if err != nil {
		return nil, err
	}

	trj.Source = trajPath
	trj.Topology = topPath
	if trj.Name == "" {
		trj.Name = displayName(trajPath)
	}
	if trj.NFrames == 0 && len(trj.Chains) > 0 {
		trj.NFrames = len(trj.Chains[0].Phi)
	}

	if l.config.ValidateOnLoad {
		if err := trj.Validate(); err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeLoader, errors.CodeAngleFileInvalid,
				fmt.Sprintf("angle file %q failed validation", trajPath))
		}
	}

	l.logger.WithFields(logrus.Fields{
		"path":   trajPath,
		"frames": trj.NFrames,
		"chains": len(trj.Chains),
	}).Debug("Loaded angle file")

	return trj, nil
}

// Private methods

func (l *AngleFileLoader) resolveFormat(path string) (string, error) {
	if l.config.Format != "" {
		return strings.ToLower(l.config.Format), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return constants.AngleFormatJSON, nil
	case ".csv":
		return constants.AngleFormatCSV, nil
	default:
		return "", errors.NewLoaderError(errors.CodeAngleFileInvalid,
			fmt.Sprintf("cannot infer angle file format from extension of %q", path))
	}
}

func (l *AngleFileLoader) loadJSON(path string) (*models.Trajectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewPathError(err, path)
	}
	var trj models.Trajectory
	if err := json.Unmarshal(data, &trj); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeLoader, errors.CodeAngleFileInvalid,
			fmt.Sprintf("angle file %q is not valid JSON", path))
	}
	return &trj, nil
}

// loadCSV parses a single-chain frame-major table. The header names one
// frame column followed by phi_<residue> columns and then psi_<residue>
// columns covering the same residues in the same order.
func (l *AngleFileLoader) loadCSV(path string) (*models.Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewPathError(err, path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeLoader, errors.CodeAngleFileInvalid,
			fmt.Sprintf("angle file %q is not valid CSV", path))
	}
	if len(records) < 2 {
		return nil, errors.NewLoaderError(errors.CodeAngleFileInvalid,
			fmt.Sprintf("angle file %q has no data rows", path))
	}

	phiIDs, _, err := parseCSVHeader(records[0])
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeLoader, errors.CodeAngleFileInvalid,
			fmt.Sprintf("angle file %q has an invalid header", path))
	}

	nRes := len(phiIDs)
	rows := records[1:]
	phi := make([][]float64, len(rows))
	psi := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != 1+2*nRes {
			return nil, errors.NewLoaderError(errors.CodeAngleFileInvalid,
				fmt.Sprintf("angle file %q row %d has %d columns, expected %d", path, i+2, len(row), 1+2*nRes))
		}
		phi[i] = make([]float64, nRes)
		psi[i] = make([]float64, nRes)
		for r := 0; r < nRes; r++ {
			if phi[i][r], err = strconv.ParseFloat(row[1+r], 64); err != nil {
				return nil, errors.NewLoaderError(errors.CodeAngleFileInvalid,
					fmt.Sprintf("angle file %q row %d: bad phi value %q", path, i+2, row[1+r]))
			}
			if psi[i][r], err = strconv.ParseFloat(row[1+nRes+r], 64); err != nil {
				return nil, errors.NewLoaderError(errors.CodeAngleFileInvalid,
					fmt.Sprintf("angle file %q row %d: bad psi value %q", path, i+2, row[1+nRes+r]))
			}
		}
	}

	return &models.Trajectory{
		NFrames: len(rows),
		Chains: []*models.ProteinChain{{
			Index:      0,
			ResidueIDs: phiIDs,
			Phi:        phi,
			Psi:        psi,
		}},
	}, nil
}

// Helper functions

func getDefaultAngleFileConfig() *AngleFileConfig {
	return &AngleFileConfig{
		Format:         "",
		ValidateOnLoad: true,
	}
}

func parseCSVHeader(header []string) (phiIDs, psiIDs []int, err error) {
	if len(header) < 3 || (len(header)-1)%2 != 0 {
		return nil, nil, fmt.Errorf("header must hold a frame column plus paired phi/psi columns, got %d columns", len(header))
	}
	nRes := (len(header) - 1) / 2
	phiIDs = make([]int, nRes)
	psiIDs = make([]int, nRes)
	for i := 0; i < nRes; i++ {
		if phiIDs[i], err = parseAngleColumn(header[1+i], "phi"); err != nil {
			return nil, nil, err
		}
		if psiIDs[i], err = parseAngleColumn(header[1+nRes+i], "psi"); err != nil {
			return nil, nil, err
		}
		if phiIDs[i] != psiIDs[i] {
			return nil, nil, fmt.Errorf("phi/psi columns disagree on residue order: phi_%d vs psi_%d", phiIDs[i], psiIDs[i])
		}
	}
	return phiIDs, psiIDs, nil
}

func parseAngleColumn(name, kind string) (int, error) {
	prefix := kind + "_"
	if !strings.HasPrefix(name, prefix) {
		return 0, fmt.Errorf("column %q does not match %s<residue>", name, prefix)
	}
	id, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
	if err != nil {
		return 0, fmt.Errorf("column %q has a non-numeric residue id", name)
	}
	return id, nil
}

func displayName(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	base := filepath.Base(path)
	if dir == "." || dir == string(filepath.Separator) {
		return base
	}
	return filepath.Join(dir, base)
}
