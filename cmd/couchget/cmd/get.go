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
	"golang.org/x/sync/errgroup"

	"github.com/go-kivik/couchreq"
	"github.com/go-kivik/couchreq/cmd/couchget/config"
)

type get struct {
	*root
}

func getCmd(r *root) *cobra.Command {
	g := &get{
		root: r,
	}
	cmd := &cobra.Command{
		Use:   "get <db> <docid> [docid...]",
		Short: "Get one or more documents",
		Long: `Fetch documents with the HTTP GET verb.

A single document is output as-is. When more than one document ID is given,
the documents are fetched concurrently and output as a JSON array, in the
order requested.`,
		Args: cobra.MinimumNArgs(2), // nolint:gomnd
		RunE: g.RunE,
	}
	cmd.Flags().IntP(config.KeyJobs, "j", config.DefaultJobs, "Maximum number of concurrent requests")
	return cmd
}

func (c *get) RunE(cmd *cobra.Command, args []string) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	db := client.DB(args[0])
	docIDs := args[1:]
	c.log.Debugf("[get] Will fetch %d document(s) from %s/%s", len(docIDs), client.DSN(), db.Name())

	docs := make([]couchreq.Document, len(docIDs))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(c.conf.Jobs)
	for i, docID := range docIDs {
		i, docID := i, docID
		g.Go(func() error {
			return c.retry(ctx, func() error {
				doc, err := db.Get(ctx, docID, c.options).Await(ctx)
				if err != nil {
					return err
				}
				docs[i] = doc
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if len(docs) == 1 {
		return c.fmt.Value(docs[0])
	}
	return c.fmt.Value(docs)
}
