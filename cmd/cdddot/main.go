// Copyright (c) 2026 The zoneforge authors
//
// MIT License

// Command cdddot builds a diagram from clock-difference constraints and
// emits it in Graphviz dot format.
//
// Each argument is one constraint of the form i-j<=v or i-j<v, where i
// and j are clock indexes. The constraints are conjoined and, unless
// --no-reduce is given, brought into reduced form before printing.
package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zoneforge/cdd"
	"github.com/zoneforge/cdd/dbm"
)

var constraintRe = regexp.MustCompile(`^(\d+)-(\d+)(<=|<)(-?\d+)$`)

func parseConstraint(s *cdd.Session, arg string) (cdd.Node, error) {
	m := constraintRe.FindStringSubmatch(arg)
	if m == nil {
		return 0, errors.Errorf("cannot parse constraint %q", arg)
	}
	i, _ := strconv.Atoi(m[1])
	j, _ := strconv.Atoi(m[2])
	v, _ := strconv.Atoi(m[4])
	bnd := dbm.RawOf(int32(v), m[3] == "<")
	return s.Upper(int32(i), int32(j), bnd), nil
}

func run(cmd *cobra.Command, args []string) error {
	clocks, _ := cmd.Flags().GetInt32("clocks")
	bools, _ := cmd.Flags().GetInt32("bools")
	noReduce, _ := cmd.Flags().GetBool("no-reduce")
	pushNegate, _ := cmd.Flags().GetBool("push-negate")
	output, _ := cmd.Flags().GetString("output")

	s, err := cdd.New(cdd.Logger(logrus.StandardLogger()))
	if err != nil {
		return err
	}
	defer s.Done()
	s.AddClocks(clocks)
	if bools > 0 {
		s.AddBddvar(bools)
	}

	res := s.Ref(s.True())
	for _, arg := range args {
		c, err := parseConstraint(s, arg)
		if err != nil {
			return err
		}
		c = s.Ref(c)
		next := s.Ref(s.Apply(res, c, cdd.OpAnd))
		s.RecDeref(res)
		s.RecDeref(c)
		res = next
	}
	if !noReduce {
		next := s.Ref(s.Reduce(res))
		s.RecDeref(res)
		res = next
	}
	if err := s.Err(); err != nil {
		return err
	}

	w := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return errors.Wrap(err, "cannot create output file")
		}
		defer f.Close()
		w = f
	}
	return s.Fprintdot(w, res, pushNegate)
}

func main() {
	root := &cobra.Command{
		Use:   "cdddot [constraints]",
		Short: "Build a clock difference diagram and print it as Graphviz dot",
		Args:  cobra.ArbitraryArgs,
		RunE:  run,
	}
	root.Flags().Int32("clocks", 3, "number of clocks to declare (including the reference clock)")
	root.Flags().Int32("bools", 0, "number of boolean variables to declare")
	root.Flags().Bool("no-reduce", false, "print the diagram without reducing it first")
	root.Flags().Bool("push-negate", false, "push negations onto the terminals while printing")
	root.Flags().StringP("output", "o", "", "write the dot output to a file instead of stdout")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
