package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"rootforge/internal/buildroot"
	"rootforge/internal/image"
	"rootforge/internal/logging"
)

// imageConverter is the slice of the post-processor the sequencer needs.
type imageConverter interface {
	Present() bool
	Convert(ctx context.Context, raw string) (string, error)
}

// A Sequencer drives Buildroot through the fixed stage order for one
// invocation. Stages are blocking and strictly sequential; internal build
// parallelism is Buildroot's own, via BR2_JLEVEL.
type Sequencer struct {
	Env      buildroot.BuildEnvironment
	Set      buildroot.ConfigurationSet
	External string // BR2_EXTERNAL value, empty when no package sets exist

	Logger *slog.Logger

	runner    commandRunner
	converter imageConverter
	buildID   string
	logPath   string
}

// New prepares a sequencer for env and its composed configuration set.
func New(env buildroot.BuildEnvironment, set buildroot.ConfigurationSet, external string, logger *slog.Logger) *Sequencer {
	id := uuid.New().String()[:8]
	return &Sequencer{
		Env:       env,
		Set:       set,
		External:  external,
		Logger:    logger,
		runner:    execRunner{},
		converter: image.NewConverter(logger),
		buildID:   id,
		logPath:   filepath.Join(env.OutputDir, id+".log"),
	}
}

func (s *Sequencer) logger() *slog.Logger {
	return logging.Ensure(s.Logger)
}

// Run executes the stage sequence. The first failing stage aborts the run;
// no stage is retried and none runs twice.
func (s *Sequencer) Run(ctx context.Context) error {
	unlock, err := lockBuildDir(s.Env.OutputDir)
	if err != nil {
		return err
	}
	defer unlock()

	logger := s.logger().With("build_id", s.buildID, "arch", s.Env.Arch)

	for _, st := range s.stages() {
		if st.skip != nil && st.skip() {
			logger.Info("stage skipped", "stage", st.name)
			continue
		}
		logger.Info("stage starting", "stage", st.name)
		if err := st.run(ctx); err != nil {
			logger.Error("stage failed", "stage", st.name, "error", err)
			return err
		}
	}

	logger.Info("build sequence completed", "log", s.logPath)
	return nil
}

func (s *Sequencer) stages() []stage {
	return []stage{
		{name: StageSelectBaseConfig, run: s.selectBaseConfig},
		{name: StageMaterializeConfig, run: s.materializeConfig},
		{name: StageNormalizeConfig, run: s.normalizeConfig},
		{name: StagePrepareDirectories, run: s.prepareDirectories},
		{name: StageRunBuild, run: s.runBuild},
		{name: StageConvertImage, skip: s.skipConvert, run: s.convertImage},
	}
}

// make runs the build tool from its own source tree, the working directory
// it requires.
func (s *Sequencer) make(ctx context.Context, stageName string, args []string, env []string, output io.Writer) error {
	inv := invocation{Dir: s.Env.TreeDir, Name: "make", Args: args, Env: env, Output: output}
	if err := s.runner.Run(ctx, inv); err != nil {
		toolErr := &buildroot.ToolError{Stage: stageName, Err: err}
		if output != nil {
			toolErr.Log = s.logPath
		}
		return toolErr
	}
	return nil
}

func (s *Sequencer) selectBaseConfig(ctx context.Context) error {
	name, err := buildroot.Defconfig(s.Env.Arch)
	if err != nil {
		return err
	}

	args := []string{"O=" + s.Env.OutputDir}
	if s.External != "" {
		args = append(args, "BR2_EXTERNAL="+s.External)
	}
	args = append(args, name)
	return s.make(ctx, StageSelectBaseConfig, args, nil, nil)
}

// materializeConfig appends the composed configuration to the generated
// .config: fragment contents first, explicit lines last, realizing the
// last-assignment-wins override order.
func (s *Sequencer) materializeConfig(context.Context) error {
	path := filepath.Join(s.Env.OutputDir, ".config")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open configuration %s: %w", path, err)
	}

	for _, frag := range s.Set.Fragments {
		data, err := os.ReadFile(frag)
		if err != nil {
			f.Close()
			return fmt.Errorf("read fragment: %w", err)
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return fmt.Errorf("append fragment %s: %w", frag, err)
		}
	}

	for _, line := range s.Set.Lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			f.Close()
			return fmt.Errorf("append configuration line: %w", err)
		}
	}

	return f.Close()
}

// normalizeConfig resolves the dependent options implied by the merged
// configuration before the build proper starts.
func (s *Sequencer) normalizeConfig(ctx context.Context) error {
	args := []string{"O=" + s.Env.OutputDir, "olddefconfig"}
	return s.make(ctx, StageNormalizeConfig, args, nil, nil)
}

func (s *Sequencer) prepareDirectories(context.Context) error {
	for _, dir := range []string{s.Env.OutputDir, s.Env.DownloadDir, s.Env.OverlayDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (s *Sequencer) runBuild(ctx context.Context) error {
	logFile, err := os.Create(s.logPath)
	if err != nil {
		return fmt.Errorf("create build log: %w", err)
	}
	defer logFile.Close()

	args := s.buildArgs()
	s.logger().Info("running build", "args", args, "log", s.logPath)

	// LD_LIBRARY_PATH from the host would leak host library paths into the
	// cross-build.
	if err := s.make(ctx, StageRunBuild, args, scrubEnv("LD_LIBRARY_PATH"), logFile); err != nil {
		return err
	}

	// The raw image gets its manifest here, not in the conversion stage:
	// it must appear even when conversion is skipped.
	return s.checksumArtifact(s.rawImagePath())
}

func (s *Sequencer) rawImagePath() string {
	return filepath.Join(s.Env.OutputDir, "images", "rootfs.ext2")
}

// checksumArtifact writes the BLAKE3 manifest for artifact when it exists.
// Partial builds and trimmed configurations legitimately produce no image.
func (s *Sequencer) checksumArtifact(artifact string) error {
	if _, err := os.Stat(artifact); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat artifact %s: %w", artifact, err)
	}

	manifest, err := image.WriteChecksum(artifact)
	if err != nil {
		return fmt.Errorf("write checksum for %s: %w", artifact, err)
	}
	s.logger().Info("wrote checksum manifest", "manifest", manifest)
	return nil
}

// buildArgs assembles the full-build argument list.
func (s *Sequencer) buildArgs() []string {
	verbosity := "V=0"
	if s.Env.Verbose {
		verbosity = "V=1"
	}

	args := []string{"O=" + s.Env.OutputDir, verbosity}
	if s.Env.BenchSourceDir != "" {
		args = append(args, "BENCH_SOURCE="+s.Env.BenchSourceDir)
	}
	if s.Env.ForceRebuild {
		// Ahead of the user arguments so a trailing argument cannot
		// override it.
		args = append(args, "-B")
	}
	args = append(args, s.Env.ExtraArgs...)
	if !s.Env.NoAll {
		// Aggregate target last, so user-specified targets still run.
		args = append(args, "all")
	}
	return args
}

func (s *Sequencer) skipConvert() bool {
	if s.Env.NoAll {
		return true
	}
	if !s.converter.Present() {
		s.logger().Info("image converter not installed, skipping conversion")
		return true
	}
	return false
}

func (s *Sequencer) convertImage(ctx context.Context) error {
	compressed, err := s.converter.Convert(ctx, s.rawImagePath())
	if err != nil {
		return &buildroot.ToolError{Stage: StageConvertImage, Err: err}
	}
	if compressed == "" {
		return nil
	}
	return s.checksumArtifact(compressed)
}
