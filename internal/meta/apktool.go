// Package meta detects the project a smali tree was decoded into, such as
// an apktool output directory, and summarizes it for archive manifests.
//
// Goals:
//   - Best-effort parsing: tolerate partial/absent files
//   - Accept either the project root or one of its smali directories
//   - Deterministic output (sorted smali directories)
package meta

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Info is a minimal summary of the decoded project.
type Info struct {
	Tool        string   `json:"tool"`                  // "apktool" or "" (unknown)
	Root        string   `json:"-"`                     // project directory
	ApkFile     string   `json:"apkFile,omitempty"`     // original archive name
	Package     string   `json:"package,omitempty"`     // manifest package
	MinSDK      string   `json:"minSdk,omitempty"`      // e.g. "21"
	TargetSDK   string   `json:"targetSdk,omitempty"`   // e.g. "34"
	VersionName string   `json:"versionName,omitempty"` // e.g. "1.2.0"
	VersionCode string   `json:"versionCode,omitempty"`
	SmaliDirs   []string `json:"smaliDirs,omitempty"` // "smali", "smali_classes2", ...
}

// Known reports whether a project was detected.
func (i Info) Known() bool { return i.Tool != "" }

// Detect probes dir and its parent for an apktool project. The zero Info
// is returned when neither looks like one.
func Detect(dir string) Info {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Info{}
	}
	for _, root := range []string{abs, filepath.Dir(abs)} {
		if p := firstExisting(root, "apktool.yml", "apktool.yaml"); p != "" {
			if inf, ok := detectApktool(root, p); ok {
				return inf
			}
		}
	}
	return Info{}
}

// ------------------------------ apktool --------------------------------------

type apktoolYML struct {
	ApkFileName string `yaml:"apkFileName"`
	SdkInfo     struct {
		MinSdkVersion    string `yaml:"minSdkVersion"`
		TargetSdkVersion string `yaml:"targetSdkVersion"`
	} `yaml:"sdkInfo"`
	PackageInfo struct {
		RenameManifestPackage string `yaml:"renameManifestPackage"`
	} `yaml:"packageInfo"`
	VersionInfo struct {
		VersionCode string `yaml:"versionCode"`
		VersionName string `yaml:"versionName"`
	} `yaml:"versionInfo"`
}

type manifestXML struct {
	XMLName     xml.Name `xml:"manifest"`
	Package     string   `xml:"package,attr"`
	VersionName string   `xml:"http://schemas.android.com/apk/res/android versionName,attr"`
	UsesSdk     struct {
		Min    string `xml:"http://schemas.android.com/apk/res/android minSdkVersion,attr"`
		Target string `xml:"http://schemas.android.com/apk/res/android targetSdkVersion,attr"`
	} `xml:"uses-sdk"`
}

func detectApktool(root, ymlPath string) (Info, bool) {
	b, err := os.ReadFile(ymlPath)
	if err != nil {
		return Info{}, false
	}
	var y apktoolYML
	if err := yaml.Unmarshal(stripRootTag(b), &y); err != nil {
		return Info{}, false
	}

	var m manifestXML
	if p := firstExisting(root, "AndroidManifest.xml"); p != "" {
		if mb, err := os.ReadFile(p); err == nil {
			_ = xml.Unmarshal(mb, &m) // a binary manifest leaves m empty
		}
	}

	return Info{
		Tool:        "apktool",
		Root:        root,
		ApkFile:     strings.TrimSpace(y.ApkFileName),
		Package:     firstNonEmpty(y.PackageInfo.RenameManifestPackage, m.Package),
		MinSDK:      firstNonEmpty(y.SdkInfo.MinSdkVersion, m.UsesSdk.Min),
		TargetSDK:   firstNonEmpty(y.SdkInfo.TargetSdkVersion, m.UsesSdk.Target),
		VersionName: firstNonEmpty(y.VersionInfo.VersionName, m.VersionName),
		VersionCode: strings.TrimSpace(y.VersionInfo.VersionCode),
		SmaliDirs:   smaliDirs(root),
	}, true
}

// stripRootTag drops the Java class tag apktool puts on the first line
// (!!brut.androlib.meta.MetaInfo).
func stripRootTag(b []byte) []byte {
	if !bytes.HasPrefix(b, []byte("!!")) {
		return b
	}
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[i+1:]
	}
	return nil
}

// smaliDirs lists smali and smali_* directories of root.
func smaliDirs(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() && (n == "smali" || strings.HasPrefix(n, "smali_")) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// ---------------------------- helpers ---------------------------------------

func firstExisting(root string, names ...string) string {
	for _, n := range names {
		p := filepath.Join(root, n)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s != "" && s != "null" {
			return s
		}
	}
	return ""
}
