package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/baysim/oilspill/types"
)

// BorderSpec names a polygonal region of interest as a coordinate ring.
type BorderSpec struct {
	Name string       `yaml:"Name"`
	Ring [][2]float64 `yaml:"Ring"`
}

// Parameters obtained from the YAML input file
type SimParameters struct {
	Title          string  `yaml:"Title"`
	NSteps         int     `yaml:"NSteps"`
	Dt             float64 `yaml:"Dt"`
	WriteFrequency int     `yaml:"WriteFrequency"`
	BoundaryPolicy string  `yaml:"BoundaryPolicy"`

	// Mesh source: a named generator ("crossed-square", "unit-square") with
	// an optional resolution
	MeshName string `yaml:"MeshName"`
	MeshSize int    `yaml:"MeshSize"`

	// Velocity field: "bay" or "uniform"
	FlowField string  `yaml:"FlowField"`
	FlowU     float64 `yaml:"FlowU"`
	FlowV     float64 `yaml:"FlowV"`

	// Fresh initialization
	GaussianCenter [2]float64 `yaml:"GaussianCenter"`
	GaussianSigma  float64    `yaml:"GaussianSigma"`
	TotalMass      float64    `yaml:"TotalMass"`

	// Resume from a checkpoint instead of a fresh profile
	RestartFile string `yaml:"RestartFile"`

	Borders []BorderSpec `yaml:"Borders"`
	LogName string       `yaml:"LogName"`
}

func (sp *SimParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, sp)
}

func (sp *SimParameters) Validate() (err error) {
	if sp.NSteps <= 0 {
		return fmt.Errorf("NSteps must be positive, have %d", sp.NSteps)
	}
	if sp.Dt <= 0 {
		return fmt.Errorf("Dt must be positive, have %g", sp.Dt)
	}
	if sp.WriteFrequency < 0 {
		return fmt.Errorf("WriteFrequency must not be negative, have %d", sp.WriteFrequency)
	}
	if _, err = types.ParseBoundaryPolicy(sp.BoundaryPolicy); err != nil {
		return
	}
	if len(sp.MeshName) == 0 {
		return fmt.Errorf("MeshName is required")
	}
	if sp.RestartFile == "" {
		if sp.GaussianSigma <= 0 {
			return fmt.Errorf("GaussianSigma must be positive for a fresh run, have %g", sp.GaussianSigma)
		}
		if sp.TotalMass < 0 {
			return fmt.Errorf("TotalMass must not be negative, have %g", sp.TotalMass)
		}
	}
	for _, b := range sp.Borders {
		if len(b.Ring) < 3 {
			return fmt.Errorf("border %q needs at least 3 points, have %d", b.Name, len(b.Ring))
		}
	}
	return
}

func (sp *SimParameters) Policy() types.BoundaryPolicy {
	bp, _ := types.ParseBoundaryPolicy(sp.BoundaryPolicy)
	return bp
}

func (sp *SimParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("%8d\t\t= NSteps\n", sp.NSteps)
	fmt.Printf("%8.5f\t\t= Dt\n", sp.Dt)
	fmt.Printf("%8d\t\t= WriteFrequency\n", sp.WriteFrequency)
	fmt.Printf("[%s]\t\t= Boundary Policy\n", sp.BoundaryPolicy)
	fmt.Printf("[%s:%d]\t\t= Mesh\n", sp.MeshName, sp.MeshSize)
	fmt.Printf("[%s]\t\t= Flow Field\n", sp.FlowField)
	if sp.RestartFile != "" {
		fmt.Printf("[%s]\t= Restart File\n", sp.RestartFile)
	} else {
		fmt.Printf("%v sigma=%g mass=%g\t= Gaussian init\n",
			sp.GaussianCenter, sp.GaussianSigma, sp.TotalMass)
	}
	for _, b := range sp.Borders {
		fmt.Printf("Border[%s] = %v\n", b.Name, b.Ring)
	}
}
