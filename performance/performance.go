// This file is part of Gopherboy.
//
// Gopherboy is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopherboy is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopherboy.  If not, see <https://www.gnu.org/licenses/>.

// Package performance contains helpers for measuring the emulation.
// Profiles are written with the pkg/profile package and can be
// inspected with the standard pprof tooling.
package performance

import (
	"github.com/pkg/profile"

	"github.com/jetsetilly/gopherboy/curated"
)

// sentinel error returned by RunProfiler.
const UnknownProfileMode = "performance: unknown profile mode: %s"

// RunProfiler runs the supplied function, optionally wrapped in a
// profiler. The mode argument is one of "none", "cpu", "mem" or
// "trace". Profile files are written to outDir.
func RunProfiler(mode string, outDir string, run func() error) error {
	var opt func(*profile.Profile)

	switch mode {
	case "none", "":
		return run()
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfile
	case "trace":
		opt = profile.TraceProfile
	default:
		return curated.Errorf(UnknownProfileMode, mode)
	}

	p := profile.Start(opt, profile.ProfilePath(outDir), profile.Quiet)
	defer p.Stop()

	return run()
}
