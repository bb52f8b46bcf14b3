package mapper

import (
	"fmt"

	"famicore/internal/cartridge"
)

// New builds the mapper variant selected by a parsed ROM image's header.
func New(file *cartridge.INESFile) (Mapper, error) {
	number := file.Header.MapperNumber()
	switch number {
	case 0:
		return NewNROM(file)
	case 1:
		return NewMMC1(file)
	case 2:
		return NewUxROM(file)
	case 3:
		return NewCNROM(file)
	case 4:
		return NewMMC3(file)
	case 5:
		return NewMMC5(file)
	case 7:
		return NewAxROM(file)
	case 19:
		return NewN163(file)
	case 24, 26:
		return NewVRC6(file)
	case 66:
		return NewGxROM(file)
	case 69:
		return NewFME7(file)
	}
	return nil, fmt.Errorf("%w: %d", cartridge.ErrUnsupportedMapper, number)
}
