package h264recorder

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"
)

// accessUnit is one encoded picture in Annex B form.
type accessUnit struct {
	data        []byte
	timestampUs int64
	isKeyframe  bool
}

// NAL unit types used while splitting and muxing.
const (
	nalSlice    = 1
	nalIDRSlice = 5
	nalSEI      = 6
	nalSPS      = 7
	nalPPS      = 8
	nalAUD      = 9
)

// splitAccessUnits groups an Annex B stream into pictures and stamps
// them at a constant frame rate. A picture starts at a slice whose
// first_mb_in_slice is zero, or at a parameter set, SEI or delimiter that
// follows a slice.
func splitAccessUnits(stream []byte, fps float64) []accessUnit {
	var (
		units    []accessUnit
		cur      [][]byte
		hasSlice bool
		keyframe bool
	)

	flush := func() {
		if len(cur) == 0 {
			return
		}
		var buf bytes.Buffer
		for _, n := range cur {
			buf.Write([]byte{0, 0, 0, 1})
			buf.Write(n)
		}
		units = append(units, accessUnit{
			data:        buf.Bytes(),
			timestampUs: int64(float64(len(units)) * 1e6 / fps),
			isKeyframe:  keyframe,
		})
		cur, hasSlice, keyframe = nil, false, false
	}

	for _, nalu := range parseAnnexB(stream) {
		if len(nalu) == 0 {
			continue
		}
		switch nalu[0] & 0x1F {
		case nalSEI, nalSPS, nalPPS, nalAUD:
			if hasSlice {
				flush()
			}
		case nalSlice, nalIDRSlice:
			// first_mb_in_slice is ue(v); a leading 1 bit encodes zero.
			if hasSlice && len(nalu) > 1 && nalu[1]&0x80 != 0 {
				flush()
			}
			hasSlice = true
			if nalu[0]&0x1F == nalIDRSlice {
				keyframe = true
			}
		}
		cur = append(cur, nalu)
	}
	if hasSlice {
		flush()
	}
	return units
}

// buildMP4 muxes access units into a fragmented MP4 file.
func buildMP4(units []accessUnit, width, height int, fps float64) ([]byte, error) {
	if len(units) == 0 {
		return nil, ErrNoFrames
	}

	timescale := uint32(fps * 1000)
	frameDur := uint32(float64(timescale) / fps)
	trackID := uint32(1)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "und")
	trak := init.Moov.Trak

	sps, pps, err := extractSPSPPS(units)
	if err != nil {
		return nil, fmt.Errorf("extract SPS/PPS: %w", err)
	}
	avcC, err := mp4.CreateAvcC([][]byte{sps}, [][]byte{pps}, true)
	if err != nil {
		return nil, fmt.Errorf("create avcC: %w", err)
	}

	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(width), uint16(height), avcC)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	for i, u := range units {
		dur := frameDur
		if i < len(units)-1 {
			if d := uint32((units[i+1].timestampUs - u.timestampUs) * int64(timescale) / 1e6); d > 0 {
				dur = d
			}
		}

		flags := mp4.NonSyncSampleFlags
		if u.isKeyframe {
			flags = mp4.SyncSampleFlags
		}

		avcc := convertToAVCC(u.data)
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(avcc)),
				Dur:   dur,
			},
			DecodeTime: uint64(u.timestampUs) * uint64(timescale) / 1e6,
			Data:       avcc,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}

// extractSPSPPS returns the first SPS and PPS of the stream.
func extractSPSPPS(units []accessUnit) (sps, pps []byte, err error) {
	for _, u := range units {
		for _, nalu := range parseAnnexB(u.data) {
			if len(nalu) == 0 {
				continue
			}
			switch nalu[0] & 0x1F {
			case nalSPS:
				if sps == nil {
					sps = append([]byte(nil), nalu...)
				}
			case nalPPS:
				if pps == nil {
					pps = append([]byte(nil), nalu...)
				}
			}
			if sps != nil && pps != nil {
				return sps, pps, nil
			}
		}
	}
	if sps == nil {
		return nil, nil, fmt.Errorf("SPS not found")
	}
	return nil, nil, fmt.Errorf("PPS not found")
}

// parseAnnexB splits an Annex B byte stream at its start codes.
func parseAnnexB(data []byte) [][]byte {
	var nalus [][]byte
	start := 0
	i := 0

	for i < len(data) {
		if i+2 < len(data) && data[i] == 0 && data[i+1] == 0 {
			startCodeLen := 0
			if data[i+2] == 1 {
				startCodeLen = 3
			} else if i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1 {
				startCodeLen = 4
			}
			if startCodeLen > 0 {
				if i > start {
					nalus = append(nalus, data[start:i])
				}
				i += startCodeLen
				start = i
				continue
			}
		}
		i++
	}
	if start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}

// convertToAVCC rewrites Annex B as 4-byte length-prefixed NAL units,
// dropping parameter sets and delimiters that live in the sample entry.
func convertToAVCC(data []byte) []byte {
	var out []byte
	for _, nalu := range parseAnnexB(data) {
		if len(nalu) == 0 {
			continue
		}
		switch nalu[0] & 0x1F {
		case nalSPS, nalPPS, nalAUD:
			continue
		}
		n := len(nalu)
		out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
		out = append(out, nalu...)
	}
	return out
}
