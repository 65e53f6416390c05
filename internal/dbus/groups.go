package dbus

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/five82/courier/internal/executor"
)

// groupIDLine matches one line of byte pairs as printed by dbus-send, e.g.
// "      ab cd ef\n". Headers, brackets and errors never match.
var groupIDLine = regexp.MustCompile(`^\s*[0-9a-f]{2}( [0-9a-f]{2})*\n$`)

// ListGroups resolves every group the account belongs to into a name → hex id
// map using the default Encoder.
func ListGroups(ctx context.Context, exec executor.Executor) (map[string]string, error) {
	return NewSender(exec).ListGroups(ctx)
}

// ListGroups runs getGroupIds, then getGroupName for each id found. Lines that
// are not byte lists are skipped. When two groups share a name the one listed
// last wins.
func (s *Sender) ListGroups(ctx context.Context) (map[string]string, error) {
	s.logger.Info("retrieving groups")

	list := s.encoder.EncodeGroupList()
	out, err := s.exec.Run(ctx, list.Name, list.Args...)
	if err != nil {
		return nil, fmt.Errorf("list group ids: %w", err)
	}

	groups := make(map[string]string)
	reader := bufio.NewReader(bytes.NewReader(out))
	for {
		line, readErr := reader.ReadString('\n')
		if groupIDLine.MatchString(line) {
			encoded, hexID := bytesFromTokens(strings.Fields(line))
			name, err := s.groupName(ctx, encoded)
			if err != nil {
				s.logger.Warn("group name lookup failed", "id", hexID, "error", err)
			} else {
				s.logger.Info("group resolved", "name", name, "id", hexID)
				groups[name] = hexID
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				return nil, fmt.Errorf("read group ids: %w", readErr)
			}
			break
		}
	}
	return groups, nil
}

func (s *Sender) groupName(ctx context.Context, encoded string) (string, error) {
	call := s.encoder.EncodeGroupName(encoded)
	out, err := s.exec.Run(ctx, call.Name, call.Args...)
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(first), nil
}
