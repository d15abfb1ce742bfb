package hcl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// MergeHCLFiles combines multiple HCL files into a single HCL file body.
// This mimics how Terraform loads multiple .tf files in a directory.
func MergeHCLFiles(filePaths []string) (*hcl.File, error) {
	parser := hclparse.NewParser()
	var mergedContent bytes.Buffer

	for _, path := range filePaths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}

		mergedContent.Write(content)
		mergedContent.WriteString("\n")
	}

	file, diags := parser.ParseHCL(mergedContent.Bytes(), "merged.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse merged HCL content: %s", diags.Error())
	}

	return file, nil
}

// ParseHCLJobFile parses one job file. Relative replay paths are resolved
// against the file's directory.
func ParseHCLJobFile(path string) ([]AnalysisJob, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	jobs, err := ParseHCLJobs(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return resolveReplayPaths(jobs, filepath.Dir(path)), nil
}

// ParseHCLDirectory parses all .hcl files in a directory, in name order, as
// one merged job file. Only one file may hold the defaults block.
func ParseHCLDirectory(dirPath string) ([]AnalysisJob, error) {
	var hclFiles []string
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsHCLBasedOnExtension(info.Name()) {
			hclFiles = append(hclFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no HCL files found in directory %s", dirPath)
	}
	sort.Strings(hclFiles)

	mergedFile, err := MergeHCLFiles(hclFiles)
	if err != nil {
		return nil, err
	}

	jobs, err := parseHCLJobsFromFile(mergedFile)
	if err != nil {
		return nil, err
	}
	return resolveReplayPaths(jobs, dirPath), nil
}

func resolveReplayPaths(jobs []AnalysisJob, baseDir string) []AnalysisJob {
	for i := range jobs {
		if jobs[i].ReplayPath != "" && !filepath.IsAbs(jobs[i].ReplayPath) {
			jobs[i].ReplayPath = filepath.Join(baseDir, jobs[i].ReplayPath)
		}
	}
	return jobs
}
