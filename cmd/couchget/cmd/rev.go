// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/go-kivik/couchreq/cmd/couchget/output"
)

type rev struct {
	*root
}

func revCmd(r *root) *cobra.Command {
	c := &rev{
		root: r,
	}
	return &cobra.Command{
		Use:   "rev <db> <docid>",
		Short: "Fetch a document's current revision",
		Long:  `Fetch a document's current revision with a HEAD request`,
		Args:  cobra.ExactArgs(2), // nolint:gomnd
		RunE:  c.RunE,
	}
}

func (c *rev) RunE(cmd *cobra.Command, args []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	db := client.DB(args[0])
	docID := args[1]
	c.log.Debugf("[rev] Will fetch revision of document: %s/%s", args[0], docID)

	var docRev string
	err = c.retry(ctx, func() error {
		var err error
		docRev, err = db.Rev(ctx, docID, c.options)
		return err
	})
	if err != nil {
		return err
	}

	data := struct {
		ID  string `json:"id"`
		Rev string `json:"rev"`
	}{
		ID:  docID,
		Rev: docRev,
	}
	result := output.TemplateReader(`{{ .Rev }}`, data, output.JSONReader(data))
	return c.fmt.Output(result)
}
