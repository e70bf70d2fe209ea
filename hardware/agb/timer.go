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

package agb

import (
	"github.com/jetsetilly/gopherboy/hardware/agb/memory/addresses"
)

// writeTimerControl reconfigures a timer from its control register.
// Enabling a previously disabled timer reloads the counter from the
// latch.
func (sys *AGB) writeTimerControl(idx int, data uint16) {
	prescalers := [4]int{1, 64, 256, 1024}

	// synchronise before the configuration changes
	sys.updateTimers()

	reg := uint32(idx) * addresses.TimerStride

	if data&addresses.TimerCntEnable == addresses.TimerCntEnable {
		if sys.Mem.ReadIO(addresses.TM0CNT_H+reg)&addresses.TimerCntEnable == 0 {
			// reload the counter on the off to on transition
			sys.timerCounters[idx] = sys.Mem.ReadIO(addresses.TM0CNT_L + reg)
		}

		if data&addresses.TimerCntCountUp == addresses.TimerCntCountUp {
			// magic value for count-up mode
			sys.timerPrescalers[idx] = -1
		} else {
			sys.timerPrescalers[idx] = prescalers[data&addresses.TimerCntPrescaler]
		}

		sys.timerEnabled |= 1 << idx

		if data&addresses.TimerCntIRQ == addresses.TimerCntIRQ {
			sys.timerInterruptEnabled |= 1 << idx
		} else {
			sys.timerInterruptEnabled &^= 1 << idx
		}
	} else {
		sys.timerEnabled &^= 1 << idx
		sys.timerInterruptEnabled &^= 1 << idx
	}
}

// updateTimers advances every enabled timer to the current cycle
// count. An overflow reloads the counter from its latch, optionally
// raises the timer's interrupt and clocks the next timer when that
// timer is in count-up mode.
func (sys *AGB) updateTimers() {
	timer := sys.lastTimerUpdate
	passed := sys.cycleCount - sys.lastTimerUpdate

	var overflow uint8

	enabled := sys.timerEnabled
	for i := 0; enabled != 0; i, enabled = i+1, enabled>>1 {
		if enabled&1 == 0 {
			continue
		}

		oldCount := sys.timerCounters[i]

		switch {
		case sys.timerPrescalers[i] == -1:
			// count-up: clocked by the overflow of the previous timer
			if i > 0 && overflow&(1<<(i-1)) != 0 {
				sys.timerCounters[i]++
			}

		case sys.timerPrescalers[i] == 1:
			sys.timerCounters[i] += uint16(passed)

		default:
			count := timer&(sys.timerPrescalers[i]-1) + passed
			if count >= sys.timerPrescalers[i] {
				sys.timerCounters[i] += uint16(count / sys.timerPrescalers[i])
			}
		}

		if sys.timerCounters[i] < oldCount {
			// overflow. reload from the latch
			overflow |= 1 << i
			sys.timerCounters[i] = sys.Mem.ReadIO(addresses.TM0CNT_L + uint32(i)*addresses.TimerStride)

			if sys.timerInterruptEnabled&(1<<i) != 0 {
				sys.FlagInterrupt(uint16(addresses.IntTimer0) << i)
			}
		}
	}

	sys.lastTimerUpdate = sys.cycleCount
}

// TimerCounter returns the current value of a timer, synchronised to
// the current cycle count.
func (sys *AGB) TimerCounter(idx int) uint16 {
	sys.updateTimers()
	return sys.timerCounters[idx&3]
}
