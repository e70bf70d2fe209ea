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

package curated_test

import (
	"testing"

	"github.com/jetsetilly/gopherboy/curated"
	"github.com/jetsetilly/gopherboy/test"
)

const testError = "test error: %s"
const wrappingError = "wrapping error: %v"

func TestIs(t *testing.T) {
	e := curated.Errorf(testError, "foo")
	test.Equate(t, e.Error(), "test error: foo")
	test.ExpectedSuccess(t, curated.IsAny(e))
	test.ExpectedSuccess(t, curated.Is(e, testError))
	test.ExpectedFailure(t, curated.Is(e, wrappingError))
}

func TestHas(t *testing.T) {
	e := curated.Errorf(testError, "foo")
	w := curated.Errorf(wrappingError, e)

	test.ExpectedSuccess(t, curated.Has(w, testError))
	test.ExpectedSuccess(t, curated.Has(w, wrappingError))
	test.ExpectedFailure(t, curated.Is(w, testError))
}

func TestDeduplication(t *testing.T) {
	// a wrapped error repeating the head of the message chain is
	// reported only once
	e := curated.Errorf("emulator error: %v", curated.Errorf("emulator error: %v", "foo"))
	test.Equate(t, e.Error(), "emulator error: foo")
}
