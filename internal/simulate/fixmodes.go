package simulate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/isobench/internal/gtf"
)

// readTranscriptSpans reads the span of every transcript in a GTF file, in
// annotation order.
func readTranscriptSpans(path string) ([]string, map[string]span, error) {
	var order []string
	spans := make(map[string]span)
	err := gtf.ForEach(path, func(f *gtf.Feature) error {
		if f.Type != gtf.FeatureTranscript {
			return nil
		}
		id := f.TranscriptID()
		if _, ok := spans[id]; !ok {
			order = append(order, id)
		}
		spans[id] = span{f.Start, f.End}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, spans, nil
}

// FixModes sets the mode of every transcript whose span is identical in the
// real and distorted annotations to ModeControl. Transcripts missing from the
// distorted annotation are logged and left unchanged. Modes keep their order;
// real transcripts without a mode are appended.
func FixModes(realPath, distortedPath string, modes Modes, logger *zap.Logger) (Modes, int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	order, realSpans, err := readTranscriptSpans(realPath)
	if err != nil {
		return nil, 0, fmt.Errorf("read real annotation: %w", err)
	}
	_, distorted, err := readTranscriptSpans(distortedPath)
	if err != nil {
		return nil, 0, fmt.Errorf("read distorted annotation: %w", err)
	}

	fixed := make(Modes, len(modes))
	copy(fixed, modes)
	pos := make(map[string]int, len(fixed))
	for i, a := range fixed {
		pos[a.TranscriptID] = i
	}

	changed := 0
	missing := 0
	for _, id := range order {
		ds, ok := distorted[id]
		if !ok {
			missing++
			logger.Warn("transcript missing from distorted annotation", zap.String("transcript_id", id))
			continue
		}
		if realSpans[id] != ds {
			continue
		}
		i, ok := pos[id]
		if !ok {
			pos[id] = len(fixed)
			fixed = append(fixed, Assignment{TranscriptID: id, Mode: ModeControl})
			changed++
			continue
		}
		if fixed[i].Mode != ModeControl {
			fixed[i].Mode = ModeControl
			changed++
		}
	}

	logger.Info("fixed transcript modes",
		zap.Int("transcripts", len(fixed)),
		zap.Int("set_to_control", changed),
		zap.Int("missing", missing))
	return fixed, changed, nil
}

// FixModesFile runs FixModes on files and writes the fixed modes to outPath.
func FixModesFile(realPath, distortedPath, modesPath, outPath string, logger *zap.Logger) error {
	modes, err := ReadModes(modesPath)
	if err != nil {
		return err
	}
	fixed, _, err := FixModes(realPath, distortedPath, modes, logger)
	if err != nil {
		return err
	}
	return WriteModes(outPath, fixed)
}
