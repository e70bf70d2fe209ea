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

// Package dmg is the 8bit console. The DMG type ties the CPU and the
// memory bus together and routes IO register traffic to the video and
// audio collaborators. The collaborators are optional; a DMG with no
// collaborators attached is still a complete machine, which is how the
// test suites use it.
package dmg

import (
	"github.com/jetsetilly/gopherboy/curated"
	"github.com/jetsetilly/gopherboy/hardware/clocks"
	"github.com/jetsetilly/gopherboy/hardware/dmg/cpu"
	"github.com/jetsetilly/gopherboy/hardware/dmg/memory"
	"github.com/jetsetilly/gopherboy/hardware/dmg/memory/addresses"
)

// NotReset is the sentinel error returned by Run() when the machine
// has not been reset.
const NotReset = "dmg: Run() called before Reset()"

// PortDevice is a collaborator that owns a range of IO registers. The
// video and audio units implement this interface; the core never
// reaches into them any further than this.
type PortDevice interface {
	ReadRegister(addr uint16, val uint8) uint8
	WriteRegister(addr uint16, data uint8) bool
	Update()
	CyclesToNextUpdate() int
}

// DMG is the main container for the emulated components of the 8bit
// console.
type DMG struct {
	CPU *cpu.CPU
	Mem *memory.Memory

	// optional collaborators
	video PortDevice
	audio PortDevice

	// observer called with the retired cycle count after every step.
	// used by the video and audio collaborators to keep pace
	cycleCallback func(cycles int)

	resetted bool
}

// NewDMG creates a new 8bit console with the supplied cartridge. The
// cartridge may be nil, in which case the ROM and external RAM windows
// read as 0xff.
func NewDMG(cart memory.Mapper) *DMG {
	sys := &DMG{}
	sys.Mem = memory.NewMemory(cart)
	sys.CPU = cpu.NewCPU(sys.Mem)
	sys.Mem.Plumb(sys)
	return sys
}

// AttachVideo attaches the video collaborator.
func (sys *DMG) AttachVideo(video PortDevice) {
	sys.video = video
}

// AttachAudio attaches the audio collaborator.
func (sys *DMG) AttachAudio(audio PortDevice) {
	sys.audio = audio
}

// SetCycleCallback attaches the cycle observer.
func (sys *DMG) SetCycleCallback(fn func(cycles int)) {
	sys.cycleCallback = fn
}

// Reset restores the machine to its documented post-boot state.
func (sys *DMG) Reset() {
	sys.Mem.Reset()
	sys.CPU.Reset(sys.Mem.Color())
	sys.resetted = true
}

// Run the machine for the given number of host milliseconds. The
// budget is translated into clock cycles (doubled in double-speed
// mode). Returns early if the machine enters the STOP state or an
// undefined opcode is encountered.
func (sys *DMG) Run(ms int) error {
	if !sys.resetted {
		return curated.Errorf(NotReset)
	}

	cycles := clocks.DMG * ms / 1000
	if sys.CPU.DoubleSpeed {
		cycles *= 2
	}

	for !sys.CPU.Stopped && cycles > 0 {
		exec, err := sys.CPU.Step()
		if err != nil {
			return err
		}
		cycles -= exec

		if sys.cycleCallback != nil {
			sys.cycleCallback(exec)
		}
	}

	return nil
}

// FlagInterrupt ORs a bit into the IF register.
func (sys *DMG) FlagInterrupt(interrupt uint8) {
	sys.CPU.FlagInterrupt(interrupt)
}

// SetInputs updates the key matrix. A new key press wakes the machine
// from STOP and flags the Joypad interrupt.
func (sys *DMG) SetInputs(inputs uint8) {
	sys.CPU.SetInputs(inputs)
}

// ReadRegister implements the memory.RegisterHandler interface,
// routing IO register reads to the CPU or to the collaborator that
// owns the register.
func (sys *DMG) ReadRegister(addr uint16, val uint8) uint8 {
	reg := uint8(addr)

	switch reg {
	case addresses.JOYP, addresses.DIV, addresses.KEY1:
		return sys.CPU.ReadRegister(addr, val)
	}

	if reg >= addresses.AudioRegStart && reg <= addresses.AudioRegEnd {
		if sys.audio != nil {
			return sys.audio.ReadRegister(addr, val)
		}
		return val
	}

	if reg >= addresses.VideoRegStart && reg <= addresses.VideoRegEnd {
		if sys.video != nil {
			return sys.video.ReadRegister(addr, val)
		}
		return val
	}

	return val
}

// WriteRegister implements the memory.RegisterHandler interface,
// routing IO register writes to the CPU or to the collaborator that
// owns the register. Returns true if the write was consumed.
func (sys *DMG) WriteRegister(addr uint16, data uint8) bool {
	reg := uint8(addr)

	switch reg {
	case addresses.DMA, addresses.HDMA5, addresses.DIV, addresses.TAC,
		addresses.KEY1, addresses.IF, addresses.IE:
		return sys.CPU.WriteRegister(addr, data)
	}

	if reg >= addresses.AudioRegStart && reg <= addresses.AudioRegEnd {
		if sys.audio != nil {
			return sys.audio.WriteRegister(addr, data)
		}
		return false
	}

	if reg >= addresses.VideoRegStart && reg <= addresses.VideoRegEnd {
		if sys.video != nil {
			return sys.video.WriteRegister(addr, data)
		}
		return false
	}

	return false
}
