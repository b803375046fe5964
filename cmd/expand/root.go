// Copyright 2020 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/J3RN/elixir-sense/internal/core/adt"
	"github.com/J3RN/elixir-sense/internal/core/eval"
	"github.com/J3RN/elixir-sense/internal/core/runtime/fixture"
)

// flagName mirrors the teacher's cmd/cue/cmd/flags.go naming, keeping
// flag names and their pflag.FlagSet accessors paired by type rather
// than by repeated string literals.
type flagName string

const flagExpr flagName = "expr"

func (f flagName) String(flags *pflag.FlagSet) string {
	s, _ := flags.GetString(string(f))
	return s
}

// newRootCmd mirrors the teacher's cmd/cue/cmd newRootCmd/mkRunE split:
// a single cobra.Command whose RunE does the real work and whose errors
// are reported uniformly.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand <fixture.yaml>",
		Short: "expand prints the expanded type of a fixture's binding expression.",
		Long: `expand loads a YAML fixture describing an Environment and a binding
expression, runs the Expander, and prints the resulting type in a short
syntax close to the one the fixture format accepts (an unknown type
prints as _ and an impossible one as none()).`,
		Args: cobra.ExactArgs(1),
		RunE: mkRunE(),
	}

	cmd.Flags().String(string(flagExpr), "", "override the fixture's expression with this spec-text expression")

	return cmd
}

func mkRunE() func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading fixture: %w", err)
		}

		fx, err := fixture.Load(src)
		if err != nil {
			return err
		}

		expr := fx.Expression
		if override := flagExpr.String(cmd.Flags()); override != "" {
			expr, err = fixture.ParseLiteral(override)
			if err != nil {
				return err
			}
		}
		if expr == nil {
			return fmt.Errorf("fixture has no expression and --expr was not given")
		}

		result := eval.Expand(fx.Env, expr)
		fmt.Fprintln(cmd.OutOrStdout(), adt.Format(result))
		return nil
	}
}
