package main

import (
	"context"
	"fmt"

	"mcp-gateway/internal/cache"
	"mcp-gateway/internal/clients"
	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
	"mcp-gateway/internal/mcp"
	"mcp-gateway/internal/registry"
)

func registerKubernetesCapabilities(reg *registry.Registry, cfg *config.Config, store *cache.Cache, log *logger.Logger) error {
	if !cfg.Kubernetes.Enabled {
		log.Info("Kubernetes collaborator disabled, skipping its capabilities")
		return nil
	}

	k8s, err := clients.NewKubernetes(cfg.Kubernetes, log)
	if err != nil {
		return fmt.Errorf("kubernetes client unavailable: %w", err)
	}
	log.Info("Registering Kubernetes capabilities", "api_server", cfg.Kubernetes.APIServer)

	namespaceCompletion := cachedCompletion(store,
		"k8s:namespaces", cache.DefaultTTL,
		func(ctx context.Context) []string {
			return k8s.ListNamespaces(ctx)
		})
	kindCompletion := staticCompletion(clients.SupportedKinds())

	reg.RegisterResource(registry.ResourceDefinition{
		URI:                 "k8s://namespaces",
		Title:               "Cluster Namespaces",
		Description:         "Names of all namespaces in the cluster",
		MIMEType:            "application/json",
		RequiredPermissions: []string{permKubernetesRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, _ string) *mcp.Response {
			namespaces := k8s.ListNamespaces(ctx)
			return mcp.Successf("%d namespaces found", len(namespaces)).WithData(namespaces)
		},
	})

	reg.RegisterResourceTemplate(registry.ResourceTemplateDefinition{
		Title:       "Namespace Resources",
		Description: "Names of resources of one kind within a namespace",
		URITemplate: "k8s://{namespace}/{kind}",
		MIMEType:    "application/json",
		Variables: []registry.TemplateVariable{
			{Name: "namespace", Complete: namespaceCompletion},
			{Name: "kind", Complete: kindCompletion},
		},
		RequiredPermissions: []string{permKubernetesRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, _ string, vars map[string]string) *mcp.Response {
			namespace, kind := vars["namespace"], vars["kind"]
			key := fmt.Sprintf("k8s:resources:%s:%s", namespace, kind)
			names, ok := store.Get(key)
			if !ok {
				names = store.Set(key, k8s.ListResources(ctx, namespace, kind), cache.ResourceDiscoveryTTL)
			}
			return mcp.Successf("%d %s found in %s", len(names), kind, namespace).WithData(names)
		},
	})

	reg.RegisterResourceTemplate(registry.ResourceTemplateDefinition{
		Title:       "Cluster Resource",
		Description: "The full object for a single namespaced resource",
		URITemplate: "k8s://{namespace}/{kind}/{name}",
		MIMEType:    "application/json",
		Variables: []registry.TemplateVariable{
			{Name: "namespace", Complete: namespaceCompletion},
			{Name: "kind", Complete: kindCompletion},
			{Name: "name", Complete: staticCompletion(nil)},
		},
		RequiredPermissions: []string{permKubernetesRead, permAdmin},
		Handler: func(ctx context.Context, _ *mcp.RequestContext, uri string, vars map[string]string) *mcp.Response {
			namespace, kind, name := vars["namespace"], vars["kind"], vars["name"]
			object, err := k8s.GetResource(ctx, namespace, kind, name)
			if err != nil {
				if clients.IsNotFound(err) {
					return mcp.Errorf("%s %q not found in namespace %q", kind, name, namespace)
				}
				return mcp.Errorf("failed to read %s: %v", uri, err).
					WithHints("Check that the kind is one of: pods, services, configmaps, secrets, deployments")
			}
			return mcp.Successf("%s/%s in %s", kind, name, namespace).WithData(object)
		},
	})

	return nil
}
