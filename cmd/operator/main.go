// Command operator runs the GraphQLEngine controller: a thin
// controller-runtime manager that reconciles GraphQLEngine custom
// resources into Deployments running cmd/engine.
package main

import (
	"os"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"

	enginev1alpha1 "github.com/lumadb/graphql-engine/operator/api/v1alpha1"
	"github.com/lumadb/graphql-engine/operator/controllers"
)

var scheme = runtime.NewScheme()

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(enginev1alpha1.AddToScheme(scheme))
}

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer zapLogger.Sync()
	ctrl.SetLogger(zapr.NewLogger(zapLogger))

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{Scheme: scheme})
	if err != nil {
		zapLogger.Fatal("unable to start manager", zap.Error(err))
	}

	if err := (&controllers.GraphQLEngineReconciler{
		Client: mgr.GetClient(),
		Scheme: mgr.GetScheme(),
	}).SetupWithManager(mgr); err != nil {
		zapLogger.Fatal("unable to create controller", zap.String("controller", "GraphQLEngine"), zap.Error(err))
	}

	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		zapLogger.Fatal("problem running manager", zap.Error(err))
	}
}
