package round

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/mrkmeans/codec"
	"github.com/hupe1980/mrkmeans/model"
)

// spill is the persisted output of one map task.
type spill struct {
	Split      int               `json:"split"`
	Points     int64             `json:"points"`
	Aggregates []model.Aggregate `json:"aggregates"`
}

// spillCodec frames spills as zstd(codecName "\n" payload).
type spillCodec struct {
	codec codec.Codec
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

func newSpillCodec(c codec.Codec) (*spillCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &spillCodec{codec: c, enc: enc, dec: dec}, nil
}

func (c *spillCodec) encode(s spill) ([]byte, error) {
	payload, err := c.codec.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode spill of split %d: %w", s.Split, err)
	}
	raw := make([]byte, 0, len(c.codec.Name())+1+len(payload))
	raw = append(raw, c.codec.Name()...)
	raw = append(raw, '\n')
	raw = append(raw, payload...)
	return c.enc.EncodeAll(raw, nil), nil
}

func (c *spillCodec) decode(data []byte) (spill, error) {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return spill{}, err
	}
	name, payload, ok := bytes.Cut(raw, []byte{'\n'})
	if !ok {
		return spill{}, fmt.Errorf("spill has no codec header")
	}
	cd, ok := codec.ByName(string(name))
	if !ok {
		return spill{}, fmt.Errorf("spill written with unknown codec %q", name)
	}
	var s spill
	if err := cd.Unmarshal(payload, &s); err != nil {
		return spill{}, err
	}
	return s, nil
}

func (c *spillCodec) close() {
	_ = c.enc.Close()
	c.dec.Close()
}
