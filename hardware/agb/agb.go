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

// Package agb is the 32bit console. The AGB type ties the CPU and the
// memory bus together with the timers, the DMA channels and the
// interrupt plumbing, and routes IO register traffic to the video and
// audio collaborators.
//
// The scheduler is a plain loop: fetch, execute, advance the timers,
// poll the collaborators, service pending interrupts. Active DMA
// channels run between instructions; the CPU does not advance while a
// channel drains.
package agb

import (
	"github.com/jetsetilly/gopherboy/curated"
	"github.com/jetsetilly/gopherboy/hardware/agb/cpu"
	"github.com/jetsetilly/gopherboy/hardware/agb/memory"
	"github.com/jetsetilly/gopherboy/hardware/agb/memory/addresses"
	"github.com/jetsetilly/gopherboy/hardware/clocks"
)

// NotReset is the sentinel error returned by Run() when the machine
// has not been reset.
const NotReset = "agb: Run() called before Reset()"

// PortDevice is a collaborator that owns a range of IO registers. The
// video and audio units implement this interface; the core never
// reaches into them any further than this.
type PortDevice interface {
	ReadRegister(addr uint32, val uint16) uint16
	WriteRegister(addr uint32, data uint16) bool
	Update()
	CyclesToNextUpdate() int
}

// DMAEvent announces a display boundary to the DMA channels.
type DMAEvent int

// List of valid DMAEvent values.
const (
	TrigVBlank DMAEvent = iota
	TrigHBlank
)

// AGB is the main container for the emulated components of the 32bit
// console.
type AGB struct {
	CPU *cpu.CPU
	Mem *memory.Memory

	// optional collaborators
	video PortDevice
	audio PortDevice

	// raw key state as set by SetInputs. the KEYINPUT register is the
	// active-low complement
	inputs uint16

	// enabledInterrupts is IE gated by IME; currentInterrupts is the
	// serviceable set (enabled & IF). both are kept in sync on every
	// write to IE, IF or IME
	enabledInterrupts uint16
	currentInterrupts uint16

	// pending DMA triggers, one bit per channel. drained in channel
	// index order between instructions
	dmaTriggered uint8

	// timer state. a prescaler of -1 marks count-up mode
	timerCounters         [4]uint16
	timerPrescalers       [4]int
	timerEnabled          uint8
	timerInterruptEnabled uint8

	// retired cycles since reset and the high water mark of the last
	// timer synchronisation
	cycleCount      int
	lastTimerUpdate int

	resetted bool
}

// NewAGB creates a new 32bit console. BIOS and cartridge ROM are
// attached separately before Reset().
func NewAGB() *AGB {
	sys := &AGB{}
	sys.Mem = memory.NewMemory()
	sys.CPU = cpu.NewCPU(sys.Mem)
	sys.Mem.Plumb(sys)
	return sys
}

// AttachVideo attaches the video collaborator.
func (sys *AGB) AttachVideo(video PortDevice) {
	sys.video = video
}

// AttachAudio attaches the audio collaborator.
func (sys *AGB) AttachAudio(audio PortDevice) {
	sys.audio = audio
}

// Reset restores the machine to its documented power-on state. BIOS
// and cartridge attachments survive the reset.
func (sys *AGB) Reset() {
	sys.Mem.Reset()
	sys.CPU.Reset()

	sys.inputs = 0
	sys.enabledInterrupts = 0
	sys.currentInterrupts = 0
	sys.dmaTriggered = 0

	for i := range sys.timerCounters {
		sys.timerCounters[i] = 0
		sys.timerPrescalers[i] = 0
	}
	sys.timerEnabled = 0
	sys.timerInterruptEnabled = 0
	sys.cycleCount = 0
	sys.lastTimerUpdate = 0

	sys.resetted = true
}

// Run the machine for the given number of host milliseconds, budgeted
// in cycles of the system clock. Returns early if an undefined opcode
// is encountered.
func (sys *AGB) Run(ms int) error {
	if !sys.resetted {
		return curated.Errorf(NotReset)
	}

	cycles := clocks.AGB * ms / 1000

	for cycles > 0 {
		exec := 1

		if sys.dmaTriggered != 0 {
			// drain pending DMA in channel index order. the CPU does
			// not advance while a channel is active
			exec = 0
			for ch := 0; ch < 4; ch++ {
				if sys.dmaTriggered&(1<<ch) != 0 {
					sys.dmaTriggered &^= 1 << ch
					exec += sys.dmaTransfer(ch)
				}
			}
		} else if !sys.CPU.Halted {
			var err error
			exec, err = sys.CPU.Step()
			if err != nil {
				return err
			}
		}

		for {
			cycles -= exec
			sys.cycleCount += exec

			if sys.timerInterruptEnabled != 0 {
				sys.updateTimers()
			}

			if sys.video != nil && sys.enabledInterrupts&(addresses.IntLCDVBlank|addresses.IntLCDHBlank|addresses.IntLCDVCount) != 0 {
				sys.video.Update()
			}

			if sys.currentInterrupts != 0 {
				sys.CPU.Interrupt()
			}

			if !sys.CPU.Halted || cycles <= 0 {
				break
			}

			// while halted skip ahead to the next event. with timer
			// interrupts enabled the granularity is a small fixed
			// step, which is coarse but never starves a timer
			if sys.enabledInterrupts&(addresses.IntTimer0|addresses.IntTimer1|addresses.IntTimer2|addresses.IntTimer3) == 0 {
				exec = cycles
				if sys.video != nil {
					if n := sys.video.CyclesToNextUpdate(); n > 0 && n < exec {
						exec = n
					}
				}
				if exec <= 0 {
					exec = 1
				}
			} else {
				exec = 4
			}
		}
	}

	return nil
}

// FlagInterrupt ORs a bit into the IF register. The serviceable cache
// is updated accordingly.
func (sys *AGB) FlagInterrupt(interrupt uint16) {
	sys.Mem.WriteIO(addresses.IF, sys.Mem.ReadIO(addresses.IF)|interrupt)
	sys.currentInterrupts = sys.enabledInterrupts & sys.Mem.ReadIO(addresses.IF)
}

// Serviceable returns the cached serviceable interrupt set.
func (sys *AGB) Serviceable() uint16 {
	return sys.currentInterrupts
}

// SetInputs updates the raw key state. KEYINPUT reads return the
// active-low complement. A new key press flags the Keypad interrupt.
func (sys *AGB) SetInputs(inputs uint16) {
	if sys.inputs == 0 && inputs != 0 {
		sys.FlagInterrupt(addresses.IntKeypad)
	}
	sys.inputs = inputs
}

// TriggerDMA announces a display boundary. Channels whose start timing
// matches are queued for the next instruction boundary.
func (sys *AGB) TriggerDMA(event DMAEvent) {
	for ch := 0; ch < 4; ch++ {
		control := sys.Mem.ReadIO(addresses.DMA0CNT_H + uint32(ch)*addresses.DMAStride)
		if control&addresses.DMACntEnable == 0 {
			continue
		}

		start := control & addresses.DMACntStart
		if (start == 0x1000 && event == TrigVBlank) || (start == 0x2000 && event == TrigHBlank) {
			sys.dmaTriggered |= 1 << ch
		}
	}
}

// ReadRegister implements the memory.RegisterHandler interface,
// routing IO register reads to the collaborator or subsystem that owns
// the register.
func (sys *AGB) ReadRegister(addr uint32, val uint16) uint16 {
	off := addr & 0xffffff

	if off < addresses.SOUND1CNT_L {
		if sys.video != nil {
			return sys.video.ReadRegister(addr, val)
		}
		return val
	}

	if off <= addresses.FIFO_B {
		if sys.audio != nil {
			return sys.audio.ReadRegister(addr, val)
		}
		return val
	}

	switch off {
	case addresses.TM0CNT_L,
		addresses.TM0CNT_L + addresses.TimerStride,
		addresses.TM0CNT_L + 2*addresses.TimerStride,
		addresses.TM0CNT_L + 3*addresses.TimerStride:
		// synchronise before the counter is observed
		sys.updateTimers()
		return sys.timerCounters[(off-addresses.TM0CNT_L)/addresses.TimerStride]

	case addresses.KEYINPUT:
		return ^sys.inputs
	}

	return val
}

// WriteRegister implements the memory.RegisterHandler interface.
// Returns true if the write was consumed and should not be stored.
func (sys *AGB) WriteRegister(addr uint32, data uint16) bool {
	off := addr & 0xffffff

	if off < addresses.SOUND1CNT_L {
		if sys.video != nil && sys.video.WriteRegister(addr, data) {
			return true
		}
		return false
	}

	if off <= addresses.FIFO_B {
		if sys.audio != nil && sys.audio.WriteRegister(addr, data) {
			return true
		}
		return false
	}

	switch off {
	case addresses.DMA0CNT_H,
		addresses.DMA0CNT_H + addresses.DMAStride,
		addresses.DMA0CNT_H + 2*addresses.DMAStride,
		addresses.DMA0CNT_H + 3*addresses.DMAStride:
		ch := (off - addresses.DMA0CNT_H) / addresses.DMAStride
		if data&addresses.DMACntEnable == addresses.DMACntEnable {
			// immediate start timing triggers on enable
			if data&addresses.DMACntStart == 0 {
				sys.dmaTriggered |= 1 << ch
			}
		} else {
			sys.dmaTriggered &^= 1 << ch
		}

	case addresses.TM0CNT_L,
		addresses.TM0CNT_L + addresses.TimerStride,
		addresses.TM0CNT_L + 2*addresses.TimerStride,
		addresses.TM0CNT_L + 3*addresses.TimerStride:
		// the reload latch is being written. synchronise first
		sys.updateTimers()

	case addresses.TM0CNT_H,
		addresses.TM0CNT_H + addresses.TimerStride,
		addresses.TM0CNT_H + 2*addresses.TimerStride,
		addresses.TM0CNT_H + 3*addresses.TimerStride:
		sys.writeTimerControl(int((off-addresses.TM0CNT_H)/addresses.TimerStride), data)

	case addresses.WAITCNT:
		sys.Mem.UpdateWaitControl(data)

	case addresses.IE:
		if sys.Mem.ReadIO(addresses.IME)&1 == 1 {
			sys.enabledInterrupts = data
		} else {
			sys.enabledInterrupts = 0
		}
		sys.currentInterrupts = sys.enabledInterrupts & sys.Mem.ReadIO(addresses.IF)

	case addresses.IF:
		// writing a set bit clears the pending interrupt
		data = sys.Mem.ReadIO(addresses.IF) &^ data
		sys.Mem.WriteIO(addresses.IF, data)

		if sys.Mem.ReadIO(addresses.IME)&1 == 1 {
			sys.currentInterrupts = sys.Mem.ReadIO(addresses.IE) & data
		} else {
			sys.currentInterrupts = 0
		}
		return true

	case addresses.IME:
		if data&1 == 1 {
			sys.enabledInterrupts = sys.Mem.ReadIO(addresses.IE)
		} else {
			sys.enabledInterrupts = 0
		}
		sys.currentInterrupts = sys.enabledInterrupts & sys.Mem.ReadIO(addresses.IF)
	}

	return false
}
