// Copyright 2024 kcstack authors
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package utils

import (
	"github.com/joho/godotenv"
)

// ConvertEnvs converts env variables passed as a map to a list of them.
func ConvertEnvs(m map[string]string) []string {
	s := make([]string, 0, len(m))
	for k, v := range m {
		s = append(s, k+"="+v)
	}
	return s
}

// MergeStringMaps merges map m1 into m2, overriding values of m2
// that share a key with m1. The merged map is a new map.
func MergeStringMaps(m1, m2 map[string]string) map[string]string {
	if m1 == nil {
		m1 = map[string]string{}
	}
	res := make(map[string]string, len(m1)+len(m2))
	for k, v := range m2 {
		res[k] = v
	}
	for k, v := range m1 {
		res[k] = v
	}
	return res
}

// LoadEnvFile reads an env file in the dotenv format and returns
// the variables defined in it.
func LoadEnvFile(path string) (map[string]string, error) {
	return godotenv.Read(path)
}
