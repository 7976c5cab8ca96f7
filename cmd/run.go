/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/baysim/oilspill/InputParameters"
	"github.com/baysim/oilspill/geometry2D"
	"github.com/baysim/oilspill/mesh"
	"github.com/baysim/oilspill/meshgen"
	"github.com/baysim/oilspill/restart"
	"github.com/baysim/oilspill/simulation"
)

type RunOptions struct {
	InputFile string
	OutputDir string
	Profile   bool
}

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an oil spill simulation from a YAML parameter file",
	Long: `
Builds the mesh, initializes the concentration field from a Gaussian spill
profile or a restart checkpoint, steps the simulation forward and writes
periodic checkpoints plus a final report.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			opts = &RunOptions{}
			err  error
		)
		if opts.InputFile, err = cmd.Flags().GetString("inputFile"); err != nil {
			panic(err)
		}
		opts.OutputDir, _ = cmd.Flags().GetString("outputDir")
		opts.Profile, _ = cmd.Flags().GetBool("profile")
		if len(opts.InputFile) == 0 {
			fmt.Println("must supply an input parameters file (-I, --inputFile) in YAML format")
			exampleFile := `
########################################
Title: "Bay spill"
NSteps: 500
Dt: 0.01
WriteFrequency: 50
BoundaryPolicy: absorbing
MeshName: unit-square
MeshSize: 16
FlowField: bay
GaussianCenter: [0.35, 0.45]
GaussianSigma: 0.07
TotalMass: 1000
Borders:
  - Name: "fishing grounds"
    Ring: [[0.0, 0.0], [0.45, 0.0], [0.45, 0.2], [0.0, 0.2]]
########################################
`
			fmt.Printf("Example parameters file:%s", exampleFile)
			os.Exit(1)
		}
		if opts.Profile {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		if err = Run(opts); err != nil {
			logrus.WithError(err).Error("run failed")
			os.Exit(1)
		}
	},
}

func init() {
	RunCmd.Flags().StringP("inputFile", "I", "", "YAML simulation parameters file")
	RunCmd.Flags().StringP("outputDir", "O", ".", "directory for checkpoint output")
	RunCmd.Flags().Bool("profile", false, "write a CPU profile for the run")
}

func Run(opts *RunOptions) (err error) {
	var (
		sp = &InputParameters.SimParameters{}
	)
	data, err := os.ReadFile(opts.InputFile)
	if err != nil {
		return fmt.Errorf("reading parameters file: %w", err)
	}
	if err = sp.Parse(data); err != nil {
		return fmt.Errorf("parsing parameters file: %w", err)
	}
	if err = sp.Validate(); err != nil {
		return fmt.Errorf("validating parameters: %w", err)
	}
	sp.Print()

	m, err := buildMesh(sp)
	if err != nil {
		return
	}
	borders, err := buildBorders(sp)
	if err != nil {
		return
	}
	field, err := buildField(sp)
	if err != nil {
		return
	}

	sim, err := simulation.NewSimulator(m, field, sp.Dt, sp.Policy())
	if err != nil {
		return
	}
	if sp.RestartFile != "" {
		rec, rerr := restart.ReadFile(sp.RestartFile, m)
		if rerr != nil {
			return rerr
		}
		if err = sim.InitializeFromRestart(rec); err != nil {
			return
		}
		logrus.WithFields(logrus.Fields{
			"file": sp.RestartFile,
			"step": rec.Step,
		}).Info("resumed from checkpoint")
	} else {
		center := geometry2D.Point{X: sp.GaussianCenter[0], Y: sp.GaussianCenter[1]}
		if err = sim.InitializeGaussian(center, sp.GaussianSigma, sp.TotalMass); err != nil {
			return
		}
	}
	fmt.Printf("Mesh has %d cells over area %8.5f\n", m.CellCount(), m.TotalArea())
	fmt.Printf("Initial mass integral = %8.5f\n", sim.MassIntegral())

	prefix := sp.LogName
	if prefix == "" {
		prefix = "checkpoint"
	}
	writer := restart.NewWriter(opts.OutputDir, prefix)
	if err = sim.Run(sp.NSteps, sp.WriteFrequency, writer); err != nil {
		return
	}

	sim.Report(borders).Print()
	fmt.Printf("Last checkpoint written to %s\n", writer.LastPath())
	return
}

func buildMesh(sp *InputParameters.SimParameters) (m *mesh.Mesh, err error) {
	var raw mesh.RawMesh
	switch sp.MeshName {
	case "crossed-square":
		raw = meshgen.CrossedSquare()
	case "unit-square":
		raw = meshgen.UnitSquare(sp.MeshSize)
	default:
		return nil, fmt.Errorf("unknown mesh source %q", sp.MeshName)
	}
	return mesh.New(raw)
}

func buildBorders(sp *InputParameters.SimParameters) (borders []*geometry2D.Border, err error) {
	for _, bs := range sp.Borders {
		ring := make([]geometry2D.Point, len(bs.Ring))
		for i, p := range bs.Ring {
			ring[i] = geometry2D.Point{X: p[0], Y: p[1]}
		}
		b, berr := geometry2D.NewBorder(bs.Name, ring)
		if berr != nil {
			return nil, berr
		}
		borders = append(borders, b)
	}
	return
}

func buildField(sp *InputParameters.SimParameters) (field simulation.VelocityField, err error) {
	switch sp.FlowField {
	case "", "bay":
		field = simulation.BayFlow{}
	case "uniform":
		field = simulation.Uniform{U: sp.FlowU, V: sp.FlowV}
	default:
		err = fmt.Errorf("unknown flow field %q", sp.FlowField)
	}
	return
}
