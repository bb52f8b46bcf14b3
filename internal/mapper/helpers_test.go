package mapper

import "famicore/internal/cartridge"

// testImage builds a parsed image in memory. PRG bytes carry their 16 KiB
// bank number so bank arithmetic is visible in reads; CHR bytes carry their
// 8 KiB bank number.
func testImage(prgBanks, chrBanks int, flags6, flags7 uint8) *cartridge.INESFile {
	header := []uint8{'N', 'E', 'S', 0x1A,
		uint8(prgBanks), uint8(chrBanks), flags6, flags7,
		0, 0, 0, 0, 0, 0, 0, 0}
	file := &cartridge.INESFile{Header: cartridge.NewINESHeader(header)}

	file.PRG = make([]uint8, prgBanks*0x4000)
	for i := range file.PRG {
		file.PRG[i] = uint8(i / 0x4000)
	}
	file.CHR = make([]uint8, chrBanks*0x2000)
	for i := range file.CHR {
		file.CHR[i] = uint8(i / 0x2000)
	}
	return file
}

// fineGrainedImage tags every 1 KiB PRG and CHR unit with its own index,
// for mappers with small windows.
func fineGrainedImage(prgBanks, chrBanks int, flags6, flags7 uint8) *cartridge.INESFile {
	file := testImage(prgBanks, chrBanks, flags6, flags7)
	for i := range file.PRG {
		file.PRG[i] = uint8(i / 0x400)
	}
	for i := range file.CHR {
		file.CHR[i] = uint8(i / 0x400)
	}
	return file
}

func readCPU(m Mapper, address uint16) uint8 {
	value, _ := m.ReadCPU(address)
	return value
}

func readPPU(m Mapper, address uint16) uint8 {
	value, _ := m.ReadPPU(address)
	return value
}
