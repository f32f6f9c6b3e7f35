package dmx

// Enttec USB Pro wire framing.
const (
	frameSOM       = 0x7E // start of message
	frameEOM       = 0xE7 // end of message
	labelOutputDMX = 6    // "Output Only Send DMX Packet" request
	dmxStartCode   = 0x00
)

// encodeFrame builds the on-wire representation of one universe refresh:
//
//	[SOM][label][lenLo][lenHi][start code][ch1..ch512][EOM]
//
// The length field covers the start code plus the universe payload.
func encodeFrame(universe []byte) []byte {
	n := len(universe) + 1 // +1 for the start code
	out := make([]byte, 0, n+5)
	out = append(out, frameSOM, labelOutputDMX, byte(n&0xFF), byte(n>>8))
	out = append(out, dmxStartCode)
	out = append(out, universe...)
	out = append(out, frameEOM)
	return out
}
