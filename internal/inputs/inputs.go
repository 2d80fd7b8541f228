// Package inputs prepares the submission inbox: archives are expanded in
// place and audio files are collected in a stable order.
package inputs

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// audioExtensions are the recording formats the pipeline accepts.
var audioExtensions = map[string]bool{
	".ogg":  true,
	".wav":  true,
	".mp3":  true,
	".flac": true,
	".opus": true,
}

// Unzip expands every .zip archive found directly in dir into dir.
// Archive entries that would escape dir are rejected.
func Unzip(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read input dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".zip") {
			continue
		}
		if err := extractArchive(filepath.Join(dir, entry.Name()), dir); err != nil {
			return err
		}
	}
	return nil
}

// CollectAudio returns the audio files directly in dir, sorted by name.
// An empty result is an error: a proof run needs exactly one recording
// and an empty inbox means the submission never arrived.
func CollectAudio(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no audio files found in %s", dir)
	}

	sort.Strings(files)
	return files, nil
}

func extractArchive(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractEntry(f, destDir); err != nil {
			return fmt.Errorf("extract %s from %s: %w", f.Name, archivePath, err)
		}
	}
	return nil
}

func extractEntry(f *zip.File, destDir string) error {
	// Reject entries that would escape the destination (zip slip).
	dest := filepath.Join(destDir, filepath.Clean(f.Name))
	if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("entry path escapes destination")
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
