package wire

// Payload packs the logical half of a wire word: sid in bits 15..11,
// kind in bits 10..8 and the body byte below.
func (m Message) Payload() uint16 {
	return uint16(m.Sid%SidModulus)<<11 | uint16(m.Kind&0x07)<<8 | uint16(m.Body)
}

// Seal packs m and its checksum into one wire word.
func Seal(m Message) uint32 {
	p := m.Payload()
	return uint32(Checksum(p))<<16 | uint32(p)
}

// Verify checks a word's payload against its checksum half.
func Verify(w uint32) bool {
	return uint16(w>>16) == Checksum(uint16(w))
}

// Decode recovers the message from the logical half of a word. It fails
// with ErrUnknownEncoding on the reserved kind tag or any set reserved
// body bit, and never panics regardless of input. Decode does not look
// at the checksum half; callers gate on Verify first.
func Decode(w uint32) (Message, error) {
	p := uint16(w)
	m := Message{
		Sid:  Sid(p >> 11 & 0x1f),
		Kind: Kind(p >> 8 & 0x07),
		Body: byte(p),
	}
	switch m.Kind {
	case KindAck, KindError:
		if m.Body >= SidModulus {
			return Message{}, ErrUnknownEncoding
		}
	case KindPress, KindRelease:
		if m.Body&0x80 != 0 {
			return Message{}, ErrUnknownEncoding
		}
	case KindHello:
		if m.Body != 0 {
			return Message{}, ErrUnknownEncoding
		}
	case KindRgbAnim, KindRgbLayer:
		// full byte argument
	default:
		return Message{}, ErrUnknownEncoding
	}
	return m, nil
}

// Checksum computes CRC-16/CCITT over the two payload bytes, high byte
// first. Polynomial 0x1021, initial value 0xffff, no final xor.
func Checksum(payload uint16) uint16 {
	return crc16([]byte{byte(payload >> 8), byte(payload)})
}

func crc16(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
